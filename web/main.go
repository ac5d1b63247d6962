package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-raytracer/pkg/config"
	"github.com/df07/go-raytracer/web/server"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Printf("Error loading configuration: %v", err)
		os.Exit(1)
	}

	// Parse command line flags
	port := flag.Int("port", cfg.Port, "Port to serve on (default from RAYTRACER_PORT)")
	flag.Parse()

	// Create and start web server
	webServer, err := server.NewServer(*port, cfg)
	if err != nil {
		log.Printf("Error creating server: %v", err)
		os.Exit(1)
	}

	log.Printf("Raytracer Web Server")
	log.Printf("Visit http://localhost:%d to start rendering", *port)
	if cfg.S3Enabled() {
		log.Printf("Publishing renders to s3://%s/%s", cfg.S3.Bucket, cfg.S3.Prefix)
	}

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
