package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"vidconv/internal/codec"
	"vidconv/internal/intake"
	"vidconv/internal/model"
	"vidconv/internal/session"
)

type formatView struct {
	Format      string `json:"format"`
	VideoCodec  string `json:"videoCodec,omitempty"`
	AudioCodec  string `json:"audioCodec,omitempty"`
	AudioOnly   bool   `json:"audioOnly"`
	ContentType string `json:"contentType"`
}

type fileView struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

type resultView struct {
	model.Result
	DownloadURL string `json:"downloadUrl,omitempty"`
}

func filesView(files []intake.File) []fileView {
	out := make([]fileView, 0, len(files))
	for i, f := range files {
		out = append(out, fileView{Index: i, Name: f.Name, Size: f.Size, ContentType: f.ContentType})
	}
	return out
}

func resultsView(results []model.Result) []resultView {
	out := make([]resultView, 0, len(results))
	for _, r := range results {
		v := resultView{Result: r}
		if r.Success && r.Locator != "" {
			v.DownloadURL = "/api/results/" + url.PathEscape(r.Locator) + "/download"
		}
		out = append(out, v)
	}
	return out
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) formats(w http.ResponseWriter, _ *http.Request) {
	names := codec.Formats()
	out := make([]formatView, 0, len(names))
	for _, f := range names {
		d, _ := codec.Lookup(f)
		out = append(out, formatView{
			Format:      f,
			VideoCodec:  d.Video,
			AudioCodec:  d.Audio,
			AudioOnly:   codec.IsAudioOnly(f),
			ContentType: codec.ContentType(f),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) listFiles(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"files": filesView(s.sess.Files())})
}

func (s *Server) uploadFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	mr, err := r.MultipartReader()
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}

	// parts are read in request order, which becomes the batch order
	var (
		files   []intake.File
		skipped int
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.writeJSONError(w, uploadStatus(err), fmt.Errorf("parse upload: %w", err))
			return
		}
		name := part.FileName()
		if name == "" {
			part.Close()
			continue
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			s.writeJSONError(w, uploadStatus(err), fmt.Errorf("read %s: %w", name, err))
			return
		}
		ct := partType(part, data)
		if !intake.IsMedia(ct) {
			skipped++
			continue
		}
		files = append(files, intake.FromBytes(name, ct, data))
	}

	out, err := s.sess.Dispatch(r.Context(), session.AddFiles{Files: files})
	if err != nil {
		s.writeJSONError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"files":   filesView(out.Files),
		"added":   len(files),
		"skipped": skipped,
	})
}

func partType(part *multipart.Part, data []byte) string {
	ct := part.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	if ct == "" || ct == "application/octet-stream" {
		return intake.DetectContentType(part.FileName(), data)
	}
	return ct
}

func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (s *Server) removeFile(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	out, err := s.sess.Dispatch(r.Context(), session.RemoveFile{Index: idx})
	if err != nil {
		s.writeJSONError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"files": filesView(out.Files)})
}

func (s *Server) clearFiles(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sess.Dispatch(r.Context(), session.ClearFiles{}); err != nil {
		s.writeJSONError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	settings := s.defaults
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Errorf("decode settings: %w", err))
		return
	}

	out, err := s.sess.Dispatch(r.Context(), session.Convert{Settings: settings})
	if err != nil {
		s.logger.Warn("convert rejected", zap.Error(err))
		s.writeJSONError(w, statusFor(err), err)
		return
	}
	ok, failed := model.Summary(out.Results)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"jobId":     out.JobID,
		"succeeded": ok,
		"failed":    failed,
		"results":   resultsView(out.Results),
	})
}

func (s *Server) progress(w http.ResponseWriter, _ *http.Request) {
	jobID, files := s.snap.Files()
	s.writeJSON(w, http.StatusOK, map[string]any{"jobId": jobID, "files": files})
}

func (s *Server) listResults(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"results": resultsView(s.sess.Results())})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	b, data, err := s.sess.Blob(mux.Vars(r)["id"])
	if err != nil {
		s.writeJSONError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", b.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(b.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": b.Name}))
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("download interrupted", zap.String("id", b.ID), zap.Error(err))
	}
}

func (s *Server) discard(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sess.Dispatch(r.Context(), session.DiscardResult{Locator: mux.Vars(r)["id"]}); err != nil {
		s.writeJSONError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
