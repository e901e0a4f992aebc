package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/handiism/mp3order/internal/audio"
	"github.com/handiism/mp3order/internal/mirror"
	"github.com/handiism/mp3order/internal/model"
)

// TrackView is the JSON form of a track.
type TrackView struct {
	Ordinal  int    `json:"ordinal"`
	Name     string `json:"name"`
	Label    string `json:"label"`
	FileName string `json:"file_name"`
}

// OrderRequest is the body of PUT /api/order.
type OrderRequest struct {
	// Order lists every on-disk track name in the wanted play order.
	Order []string `json:"order" binding:"required"`

	// Labels optionally renames tracks, keyed by on-disk name.
	Labels map[string]string `json:"labels"`
}

// RenameRequest is the body of PATCH /api/tracks/:name.
type RenameRequest struct {
	Label string `json:"label"`
}

// PlayRequest is the body of POST /api/player/play.
type PlayRequest struct {
	Name string `json:"name" binding:"required"`
}

// ApplyResponse reports the outcome of PUT /api/order.
type ApplyResponse struct {
	Outcome     string         `json:"outcome"`
	Renamed     []string       `json:"renamed"`
	Attempts    int            `json:"attempts"`
	Warning     string         `json:"warning,omitempty"`
	Mirror      *mirror.Report `json:"mirror,omitempty"`
	MirrorError string         `json:"mirror_error,omitempty"`
	Tracks      []TrackView    `json:"tracks"`
}

func trackViews(f *model.Folder) []TrackView {
	views := make([]TrackView, 0, f.Len())
	for _, t := range f.Tracks {
		views = append(views, TrackView{
			Ordinal:  t.Ordinal,
			Name:     t.Name,
			Label:    t.Label,
			FileName: t.FileName(),
		})
	}
	return views
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "mp3order",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) listTracks(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	folder, err := s.loadedFolder()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"work_dir":   s.engine.WorkDir(),
		"mirror_dir": s.engine.MirrorDir(),
		"tracks":     trackViews(folder),
		"total":      folder.Len(),
	})
}

func (s *Server) reload(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	folder, err := s.reloadLocked()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": trackViews(folder), "total": folder.Len()})
}

// applyOrder applies a full new order. The directory is always listed again
// afterwards, so the response reflects what is on disk even after a failure.
func (s *Server) applyOrder(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folder, err := s.reloadLocked()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := folder.Reorder(req.Order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for name, label := range req.Labels {
		if err := folder.SetLabel(name, label); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	res, applyErr := s.engine.Apply(c.Request.Context(), folder.Tracks)

	folder, err = s.reloadLocked()
	if err != nil {
		log.Printf("reload after apply: %v", err)
		folder = &model.Folder{}
	}

	if applyErr != nil {
		c.JSON(statusFor(applyErr), gin.H{
			"error":   applyErr.Error(),
			"renamed": res.Renamed,
			"tracks":  trackViews(folder),
		})
		return
	}

	resp := ApplyResponse{
		Outcome:  res.Outcome.String(),
		Renamed:  res.Renamed,
		Attempts: res.Attempts,
		Mirror:   res.Mirror,
		Tracks:   trackViews(folder),
	}
	if w := res.Warning(); w != nil {
		resp.Warning = w.Error()
	}
	if res.MirrorErr != nil {
		resp.MirrorError = res.MirrorErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) renameTrack(c *gin.Context) {
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folder, err := s.loadedFolder()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	t := folder.Find(c.Param("name"))
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}

	if err := s.engine.Rename(t, req.Label); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"track": trackViews(&model.Folder{Tracks: []*model.Track{t}})[0]})
}

func (s *Server) trackMetadata(c *gin.Context) {
	s.mu.Lock()
	folder, err := s.loadedFolder()
	var t *model.Track
	if err == nil {
		t = folder.Find(c.Param("name"))
	}
	s.mu.Unlock()

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}

	md, err := audio.ReadMetadata(t.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"metadata": md})
}

// streamTrack serves the file so a browser can preview it.
func (s *Server) streamTrack(c *gin.Context) {
	s.mu.Lock()
	folder, err := s.loadedFolder()
	var t *model.Track
	if err == nil {
		t = folder.Find(c.Param("name"))
	}
	s.mu.Unlock()

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}
	c.File(t.Path)
}

func (s *Server) syncMirror(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine.MirrorDir() == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "mirroring is disabled"})
		return
	}

	report, err := s.engine.Sync(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (s *Server) play(c *gin.Context) {
	var req PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folder, err := s.loadedFolder()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	t := folder.Find(req.Name)
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "track not found"})
		return
	}

	if err := s.engine.Play(t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"playing": t.FileName()})
}

func (s *Server) stop(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "stopped"})
}

// events upgrades to a websocket that receives every engine event.
func (s *Server) events(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	s.hub.serve(conn)
}
