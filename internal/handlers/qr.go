package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
	"go.uber.org/zap"
)

var qrCache sync.Map // url -> []byte

// ScoreboardQR serves a PNG QR code linking to the scoreboard page.
func (h *Handler) ScoreboardQR(w http.ResponseWriter, r *http.Request) {
	target := h.scoreboardURL(r)

	png, err := cachedQRCode(target)
	if err != nil {
		h.logger.Error("failed to generate QR code", zap.String("url", target), zap.Error(err))
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

func (h *Handler) scoreboardURL(r *http.Request) string {
	base := strings.TrimRight(h.publicURL, "/")
	if base == "" {
		base = getBaseURL(r)
	}
	return base + "/scoreboard"
}

func cachedQRCode(url string) ([]byte, error) {
	if png, ok := qrCache.Load(url); ok {
		return png.([]byte), nil
	}
	png, err := generateQRCode(url)
	if err != nil {
		return nil, err
	}
	qrCache.Store(url, png)
	return png, nil
}

// generateQRCode encodes url as a PNG.
func generateQRCode(url string) ([]byte, error) {
	qrc, err := qrcode.NewWith(url,
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium),
		qrcode.WithEncodingMode(qrcode.EncModeByte),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	// the standard writer only writes to a named file
	tmp, err := os.CreateTemp("", "scoreboard-qr-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmp.Name()
	tmp.Close()
	defer os.Remove(name)

	w, err := standard.New(name,
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(8), // 8 pixels per module
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create writer: %w", err)
	}

	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("failed to save QR code: %w", err)
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read QR code file: %w", err)
	}
	return data, nil
}

// getBaseURL constructs the base URL from the request
func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := r.Host
	if forwardedHost := r.Header.Get("X-Forwarded-Host"); forwardedHost != "" {
		host = forwardedHost
	}

	return fmt.Sprintf("%s://%s", scheme, host)
}
