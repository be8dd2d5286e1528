package dataset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MediaErrorKind classifies a failed media probe, mirroring the diagnostic
// buckets the browser player reports.
type MediaErrorKind string

const (
	MediaAborted     MediaErrorKind = "aborted"
	MediaNetwork     MediaErrorKind = "network"
	MediaDecode      MediaErrorKind = "decode"
	MediaUnsupported MediaErrorKind = "unsupported"
)

// MediaDiagnostic describes the outcome of probing one unit's media
// reference. A failed probe never invalidates the labeling session; it is
// surfaced per item for debugging.
type MediaDiagnostic struct {
	UnitID   string
	RawRef   string
	Resolved string
	OK       bool
	Kind     MediaErrorKind
	Detail   string
}

var playableExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
	".m4v":  true,
}

var probeClient = &http.Client{Timeout: 10 * time.Second}

// ResolveMedia joins a relative media reference against baseDir. Absolute
// paths and URLs pass through unchanged.
func ResolveMedia(baseDir, ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return ref
	}
	if filepath.IsAbs(ref) || baseDir == "" {
		return ref
	}
	return filepath.Join(baseDir, ref)
}

// ProbeMedia checks a unit's media reference without decoding it: local files
// are stat'ed and sniffed for a container signature, remote URLs get a HEAD
// request. Best effort only.
func ProbeMedia(ctx context.Context, baseDir string, unit Unit) MediaDiagnostic {
	diag := MediaDiagnostic{
		UnitID:   unit.ID,
		RawRef:   unit.MediaRef,
		Resolved: ResolveMedia(baseDir, unit.MediaRef),
	}
	if diag.Resolved == "" {
		diag.Kind = MediaUnsupported
		diag.Detail = "empty media reference"
		return diag
	}

	if strings.HasPrefix(diag.Resolved, "http://") || strings.HasPrefix(diag.Resolved, "https://") {
		return probeRemote(ctx, diag)
	}
	return probeLocal(ctx, diag)
}

func probeRemote(ctx context.Context, diag MediaDiagnostic) MediaDiagnostic {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, diag.Resolved, nil)
	if err != nil {
		diag.Kind = MediaNetwork
		diag.Detail = err.Error()
		return diag
	}
	resp, err := probeClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			diag.Kind = MediaAborted
		} else {
			diag.Kind = MediaNetwork
		}
		diag.Detail = err.Error()
		return diag
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		diag.Kind = MediaNetwork
		diag.Detail = fmt.Sprintf("HEAD returned %s", resp.Status)
		return diag
	}
	diag.OK = true
	return diag
}

func probeLocal(ctx context.Context, diag MediaDiagnostic) MediaDiagnostic {
	if err := ctx.Err(); err != nil {
		diag.Kind = MediaAborted
		diag.Detail = err.Error()
		return diag
	}
	ext := strings.ToLower(filepath.Ext(diag.Resolved))
	if !playableExtensions[ext] {
		diag.Kind = MediaUnsupported
		diag.Detail = fmt.Sprintf("extension %q is not a supported container", ext)
		return diag
	}
	file, err := os.Open(diag.Resolved)
	if err != nil {
		diag.Kind = MediaNetwork
		diag.Detail = err.Error()
		return diag
	}
	defer file.Close()

	head := make([]byte, 12)
	n, err := file.Read(head)
	if err != nil || n < len(head) {
		diag.Kind = MediaDecode
		diag.Detail = "file too short to hold a container header"
		return diag
	}
	if !looksLikeVideo(head, ext) {
		diag.Kind = MediaDecode
		diag.Detail = "container signature does not match extension"
		return diag
	}
	diag.OK = true
	return diag
}

func looksLikeVideo(head []byte, ext string) bool {
	switch ext {
	case ".mp4", ".mov", ".m4v":
		// ISO BMFF: bytes 4..8 spell "ftyp".
		return len(head) >= 8 && string(head[4:8]) == "ftyp"
	case ".webm":
		// EBML magic.
		return len(head) >= 4 && head[0] == 0x1A && head[1] == 0x45 && head[2] == 0xDF && head[3] == 0xA3
	}
	return false
}
