package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/df07/go-raytracer/pkg/core"
	"github.com/df07/go-raytracer/pkg/integrator"
	"github.com/df07/go-raytracer/pkg/loaders"
	"github.com/df07/go-raytracer/pkg/output"
	"github.com/df07/go-raytracer/pkg/renderer"
	"github.com/df07/go-raytracer/pkg/scene"
)

const defaultScene = "default"

// Request limits
const (
	minWidth   = 1
	maxWidth   = 2000
	minAspect  = 0.1
	maxAspect  = 10.0
	minSamples = 1
	maxSamples = 10000
	minDepth   = 0
	maxDepth   = 1000
	minGamma   = 0.1
	maxGamma   = 10.0
	maxSeed    = 1<<31 - 1
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene   string          `json:"scene"`   // Built-in scene name or scene file name
	Config  renderer.Config `json:"config"`  // Fully resolved render settings
	Shading string          `json:"shading"` // "path" or "normals"
	Seed    int64           `json:"seed"`    // Sampler seed
	Format  string          `json:"format"`  // "png" or "ppm"
	Publish bool            `json:"publish"` // Upload the encoded image after rendering
}

// RenderComplete is the final event of a streamed render
type RenderComplete struct {
	RenderID  string `json:"renderId"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
	Key       string `json:"key,omitempty"` // Object key when published
}

// Stats represents render statistics
type Stats struct {
	TotalPixels      int     `json:"totalPixels"`
	TotalSamples     int     `json:"totalSamples"`
	AverageLuminance float64 `json:"averageLuminance"`
	ElapsedMs        int64   `json:"elapsedMs"`
}

type renderResult struct {
	img   *image.RGBA
	stats renderer.RenderStats
	err   error
}

// handleRender renders synchronously and responds with the encoded image
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, sceneObj, err := s.parseRenderRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	renderID := uuid.New().String()
	raytracer, err := s.newRaytracer(req, sceneObj, core.NopLogger{})
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("Render %s: scene %s, %dx%d, %d samples", renderID, req.Scene,
		raytracer.Width(), raytracer.Height(), req.Config.SamplesPerPixel)
	img, stats, err := raytracer.RenderPassContext(r.Context())
	if err != nil {
		log.Printf("Render %s cancelled after %v: %v", renderID, stats.Duration, err)
		writeJSONError(w, http.StatusServiceUnavailable, "render cancelled: "+err.Error())
		return
	}
	log.Printf("Render %s completed in %v", renderID, stats.Duration)

	data, contentType, err := encodeImage(img, req.Format)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "Failed to encode image: "+err.Error())
		return
	}

	if req.Publish {
		key, err := s.publish(r, renderID, req.Format, data)
		if err != nil {
			writeJSONError(w, http.StatusBadGateway, err.Error())
			return
		}
		w.Header().Set("X-Render-Key", key)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-ID", renderID)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleRenderStream renders while streaming progress over SSE. The last
// event carries the finished image as a base64 PNG.
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	req, sceneObj, err := s.parseRenderRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	renderID := uuid.New().String()
	consoleChan := make(chan ConsoleMessage, 50)
	webLogger := NewWebLogger(renderID, consoleChan)

	raytracer, err := s.newRaytracer(req, sceneObj, webLogger)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.setSSEHeaders(w)
	w.Header().Set("X-Render-ID", renderID)

	// The render stops at the next scanline once the client goes away.
	// Buffered so the goroutine never blocks sending its last result.
	ctx := r.Context()
	resultChan := make(chan renderResult, 1)
	go func() {
		img, stats, err := raytracer.RenderPassContext(ctx)
		resultChan <- renderResult{img: img, stats: stats, err: err}
	}()

	for {
		select {
		case msg := <-consoleChan:
			if err := s.sendConsoleMessage(w, msg); err != nil {
				return
			}

		case result := <-resultChan:
			s.drainConsole(w, consoleChan)
			if result.err != nil {
				s.sendSSEEvent(w, "error", "render cancelled: "+result.err.Error())
				return
			}
			s.sendRenderComplete(w, r, renderID, req, result)
			return

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

func (s *Server) sendRenderComplete(w http.ResponseWriter, r *http.Request, renderID string, req *RenderRequest, result renderResult) {
	var buf bytes.Buffer
	if err := output.EncodePNG(&buf, result.img); err != nil {
		s.sendSSEEvent(w, "error", "Failed to encode image: "+err.Error())
		return
	}

	complete := RenderComplete{
		RenderID:  renderID,
		Width:     result.img.Bounds().Dx(),
		Height:    result.img.Bounds().Dy(),
		ImageData: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Stats: Stats{
			TotalPixels:      result.stats.TotalPixels,
			TotalSamples:     result.stats.TotalSamples,
			AverageLuminance: result.stats.AverageLuminance,
			ElapsedMs:        result.stats.Duration.Milliseconds(),
		},
	}

	if req.Publish {
		key, err := s.publish(r, renderID, "png", buf.Bytes())
		if err != nil {
			s.sendSSEEvent(w, "error", err.Error())
			return
		}
		complete.Key = key
	}

	data, err := json.Marshal(complete)
	if err != nil {
		s.sendSSEEvent(w, "error", "Failed to encode result: "+err.Error())
		return
	}
	s.sendSSEEvent(w, "complete", string(data))
}

// drainConsole forwards messages logged before the render finished
func (s *Server) drainConsole(w http.ResponseWriter, consoleChan chan ConsoleMessage) {
	for {
		select {
		case msg := <-consoleChan:
			if err := s.sendConsoleMessage(w, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Server) sendConsoleMessage(w http.ResponseWriter, msg ConsoleMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling console message: %v", err)
		return nil
	}
	return s.sendSSEEvent(w, "console", string(data))
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// sendSSEEvent sends a generic SSE event
func (s *Server) sendSSEEvent(w http.ResponseWriter, event, data string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming not supported")
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// parseRenderRequest resolves the scene and layers query parameters over its
// recommended settings
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, *scene.Scene, error) {
	query := r.URL.Query()

	req := &RenderRequest{Scene: query.Get("scene")}
	if req.Scene == "" {
		req.Scene = defaultScene
	}

	sceneObj, err := s.createScene(req.Scene)
	if err != nil {
		return nil, nil, err
	}
	base := renderConfigFor(sceneObj)

	if req.Config.Width, err = parseIntParam(query, "width", base.Width, minWidth, maxWidth); err != nil {
		return nil, nil, err
	}
	if req.Config.AspectRatio, err = parseFloatParam(query, "aspect", base.AspectRatio, minAspect, maxAspect); err != nil {
		return nil, nil, err
	}
	if req.Config.SamplesPerPixel, err = parseIntParam(query, "samples", base.SamplesPerPixel, minSamples, maxSamples); err != nil {
		return nil, nil, err
	}
	if req.Config.MaxDepth, err = parseIntParam(query, "depth", base.MaxDepth, minDepth, maxDepth); err != nil {
		return nil, nil, err
	}
	if req.Config.Gamma, err = parseFloatParam(query, "gamma", base.Gamma, minGamma, maxGamma); err != nil {
		return nil, nil, err
	}

	seed, err := parseIntParam(query, "seed", int(s.seed), 0, maxSeed)
	if err != nil {
		return nil, nil, err
	}
	req.Seed = int64(seed)

	req.Shading = query.Get("shading")
	if req.Shading == "" {
		req.Shading = "path"
	}
	if _, ok := integrator.New(req.Shading); !ok {
		return nil, nil, fmt.Errorf("unknown shading: %s", req.Shading)
	}

	req.Format = query.Get("format")
	if req.Format == "" {
		req.Format = "png"
	}
	if req.Format != "png" && req.Format != "ppm" {
		return nil, nil, fmt.Errorf("format must be png or ppm, got: %s", req.Format)
	}

	if req.Publish, err = parseBoolParam(query, "publish"); err != nil {
		return nil, nil, err
	}
	if req.Publish && s.publisher == nil {
		return nil, nil, fmt.Errorf("publishing is not configured")
	}

	// Performance warning
	height := req.Config.ImageHeight()
	if req.Config.Width*height > 800*600 && req.Config.SamplesPerPixel > 100 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}

	return req, sceneObj, nil
}

// createScene returns a built-in scene or loads a scene file from the scenes
// directory. Scene file names never escape that directory.
func (s *Server) createScene(name string) (*scene.Scene, error) {
	if loaders.IsSceneFile(name) {
		return loaders.LoadScene(filepath.Join(s.scenesDir, filepath.Base(name)))
	}
	return scene.Builtin(name)
}

// newRaytracer builds a raytracer for a parsed request
func (s *Server) newRaytracer(req *RenderRequest, sceneObj *scene.Scene, logger core.Logger) (*renderer.Raytracer, error) {
	raytracer, err := renderer.NewRaytracer(sceneObj, req.Config)
	if err != nil {
		return nil, err
	}
	shading, _ := integrator.New(req.Shading)
	raytracer.SetIntegrator(shading)
	raytracer.SetSampler(core.NewSeededSampler(req.Seed))
	raytracer.SetLogger(logger)
	return raytracer, nil
}

func (s *Server) publish(r *http.Request, renderID, format string, data []byte) (string, error) {
	start := time.Now()
	key, err := s.publisher.Publish(r.Context(), renderID+"/render."+format, data)
	if err != nil {
		return "", err
	}
	log.Printf("Render %s published as %s in %v", renderID, key, time.Since(start))
	return key, nil
}

// renderConfigFor returns the render settings a scene recommends
func renderConfigFor(sceneObj *scene.Scene) renderer.Config {
	return renderer.ConfigFromScene(sceneObj)
}

// encodeImage encodes img as PNG or plain PPM
func encodeImage(img *image.RGBA, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	if format == "ppm" {
		if err := output.EncodePPM(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), output.ContentType(".ppm"), nil
	}
	if err := output.EncodePNG(&buf, img); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), output.ContentType(".png"), nil
}
