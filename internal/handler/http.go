// internal/handler/http.go
package handler

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/SyedDaiam9101/enhance-service/internal/middleware"
)

const (
	// MaxUploadBytes bounds the encoded image accepted by either transport.
	MaxUploadBytes = 10 << 20

	// MaxRequestBytes bounds a whole request: the image plus multipart or
	// protobuf framing.
	MaxRequestBytes = MaxUploadBytes + 64<<10
)

// ServeProcess handles POST /process with the image in the "image" form field.
// The response body is the PNG result.
func (h *Handler) ServeProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)
	if err := r.ParseMultipartForm(MaxRequestBytes); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	input, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read image", http.StatusBadRequest)
		return
	}

	log.Printf("[%s] Received file: %s, size: %d bytes", middleware.LogPrefix(r.Context()), header.Filename, header.Size)

	out, err := h.Enhance(r.Context(), input)
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	for k, v := range out.headers() {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(out.PNG)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.PNG); err != nil {
		log.Printf("[%s] Failed to write response: %v", middleware.LogPrefix(r.Context()), err)
	}
}
