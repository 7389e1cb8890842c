// Package gateway exposes the reading engine over HTTP for the chat
// platform adapter: draws, reveal clicks, composite images, and
// journal persistence.
package gateway

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arcanaland/oraclebot/internal/catalog"
	"github.com/arcanaland/oraclebot/internal/journal"
	"github.com/arcanaland/oraclebot/internal/render"
	"github.com/arcanaland/oraclebot/internal/session"
	"github.com/arcanaland/oraclebot/internal/spread"
)

// Gateway wires the engine components behind HTTP handlers.
type Gateway struct {
	manager  *session.Manager
	renderer *render.Renderer
	journal  *journal.Store
	logger   *slog.Logger
}

// New builds a gateway. The journal store may be nil when no journal
// backend is configured; journal routes then answer 503.
func New(manager *session.Manager, renderer *render.Renderer, journalStore *journal.Store, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{manager: manager, renderer: renderer, journal: journalStore, logger: logger}
}

// Router assembles the gin engine with all routes mounted.
func (g *Gateway) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), g.requestLogger())

	v1 := r.Group("/v1")
	{
		v1.POST("/sessions/:session/draw", g.handleDraw)
		v1.POST("/sessions/:session/shuffle", g.handleShuffle)
		v1.POST("/sessions/:session/clarifier", g.handleClarifier)
		v1.POST("/sessions/:session/undo", g.handleUndo)
		v1.GET("/sessions/:session/deck", g.handleDeckInfo)

		v1.GET("/readings/:reading", g.handleReadingState)
		v1.POST("/readings/:reading/reveal", g.handleReveal)
		v1.GET("/readings/:reading/image", g.handleReadingImage)

		v1.GET("/journal/:owner", g.handleJournalList)
		v1.POST("/journal/:owner", g.handleJournalSave)
		v1.DELETE("/journal/:owner/:name", g.handleJournalRemove)
	}
	return r
}

// requestLogger emits one structured line per request.
func (g *Gateway) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		g.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

type drawRequest struct {
	OwnerID       string   `json:"owner_id" binding:"required"`
	Count         int      `json:"count"`
	Spread        string   `json:"spread"`
	Positions     []string `json:"positions"`
	Question      string   `json:"question"`
	TargetSubject string   `json:"target_subject"`
}

type slotView struct {
	Position string `json:"position"`
	Revealed bool   `json:"revealed"`
}

type readingView struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Slots      []slotView `json:"slots"`
	Completed  bool       `json:"completed"`
	Reshuffled bool       `json:"reshuffled,omitempty"`
	Remaining  int        `json:"remaining"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

func viewOf(r *session.Reading) readingView {
	slots := r.Slots()
	view := readingView{
		ID:        r.ID,
		Kind:      r.Kind,
		Completed: r.Completed(),
		ExpiresAt: r.ExpiresAt,
		Slots:     make([]slotView, len(slots)),
	}
	for i, s := range slots {
		view.Slots[i] = slotView{Position: s.Position, Revealed: s.Revealed}
	}
	return view
}

// resolveLayout turns a draw request into a kind tag and position
// labels: a built-in spread, custom positions, or a plain count.
func resolveLayout(req drawRequest) (kind string, positions []string, err error) {
	switch {
	case req.Spread != "":
		s, err := spread.Get(req.Spread)
		if err != nil {
			return "", nil, err
		}
		return session.SpreadKindPrefix + s.ID, s.Positions, nil
	case len(req.Positions) > 0:
		s, err := spread.Custom(req.Positions)
		if err != nil {
			return "", nil, err
		}
		return session.KindCustom, s.Positions, nil
	default:
		count := req.Count
		if count == 0 {
			count = 1
		}
		if count < 0 {
			return "", nil, errors.New("count must be positive")
		}
		return session.KindAdHoc, spread.DefaultPositions(count), nil
	}
}

func (g *Gateway) handleDraw(c *gin.Context) {
	var req drawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, positions, err := resolveLayout(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := g.manager.Draw(session.DrawRequest{
		SessionID:     c.Param("session"),
		OwnerID:       req.OwnerID,
		Kind:          kind,
		Positions:     positions,
		Question:      req.Question,
		TargetSubject: req.TargetSubject,
	})
	if err != nil {
		g.domainError(c, err)
		return
	}

	view := viewOf(res.Reading)
	view.Reshuffled = res.Reshuffled
	view.Remaining = res.Remaining
	c.JSON(http.StatusCreated, view)
}

func (g *Gateway) handleShuffle(c *gin.Context) {
	g.manager.Shuffle(c.Param("session"))
	counts := g.manager.Counts(c.Param("session"))
	c.JSON(http.StatusOK, gin.H{"remaining": counts.Remaining})
}

func (g *Gateway) handleClarifier(c *gin.Context) {
	res, err := g.manager.DrawClarifier(c.Param("session"))
	if err != nil {
		g.domainError(c, err)
		return
	}
	meaning, err := g.manager.Catalog().Meaning(res.Card, res.Reversed)
	if err != nil {
		g.domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"card":       res.Card,
		"reversed":   res.Reversed,
		"meaning":    meaning,
		"reshuffled": res.Reshuffled,
		"remaining":  res.Remaining,
	})
}

func (g *Gateway) handleUndo(c *gin.Context) {
	var restored []string
	var err error
	if c.Query("shuffle") == "true" {
		restored, err = g.manager.UndoAndShuffle(c.Param("session"))
	} else {
		restored, err = g.manager.Undo(c.Param("session"))
	}
	if err != nil {
		g.domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": restored})
}

func (g *Gateway) handleDeckInfo(c *gin.Context) {
	counts := g.manager.Counts(c.Param("session"))
	c.JSON(http.StatusOK, gin.H{
		"total":     counts.Total,
		"remaining": counts.Remaining,
		"drawn":     counts.Drawn,
	})
}

func (g *Gateway) handleReadingState(c *gin.Context) {
	r, err := g.manager.Reading(c.Param("reading"))
	if err != nil {
		g.domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(r))
}

type revealRequest struct {
	Index *int `json:"index" binding:"required"`
}

func (g *Gateway) handleReveal(c *gin.Context) {
	var req revealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := g.manager.Reveal(c.Param("reading"), *req.Index)
	if err != nil {
		g.domainError(c, err)
		return
	}

	meaning, err := g.manager.Catalog().Meaning(res.Card, res.Reversed)
	if err != nil {
		g.domainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"card":      res.Card,
		"position":  res.Position,
		"reversed":  res.Reversed,
		"meaning":   meaning,
		"completed": res.Completed,
	})
}

func (g *Gateway) handleReadingImage(c *gin.Context) {
	r, err := g.manager.Reading(c.Param("reading"))
	if err != nil {
		g.domainError(c, err)
		return
	}

	revealed := r.RevealedIndexes()
	slots := make([]render.Slot, len(r.Cards))
	for i := range r.Cards {
		slots[i] = render.Slot{
			Key:      catalog.ImageKey(r.Cards[i]),
			FaceUp:   revealed[i],
			Reversed: r.Reversed[i],
		}
	}

	res, err := g.renderer.Compose(c.Request.Context(), slots)
	if err != nil {
		g.domainError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/"+res.Format, res.Data)
}

type journalSaveRequest struct {
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

func (g *Gateway) handleJournalSave(c *gin.Context) {
	if g.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": journal.ErrStorageUnavailable.Error()})
		return
	}
	var req journalSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner := c.Param("owner")
	cr, ok := g.manager.Store().LastCompleted(owner)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed reading to save"})
		return
	}

	cards := make([]journal.CardRecord, len(cr.Cards))
	for i, card := range cr.Cards {
		cards[i] = journal.CardRecord{Name: card.Name, Position: card.Position, Reversed: card.Reversed}
	}
	saved, err := g.journal.Append(c.Request.Context(), journal.Entry{
		OwnerID:       owner,
		Name:          req.Name,
		Timestamp:     cr.Timestamp,
		Kind:          cr.Kind,
		Question:      cr.Question,
		TargetSubject: cr.TargetSubject,
		Cards:         cards,
		Notes:         req.Notes,
	})
	if err != nil {
		g.domainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (g *Gateway) handleJournalList(c *gin.Context) {
	if g.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": journal.ErrStorageUnavailable.Error()})
		return
	}
	entries, err := g.journal.ForOwner(c.Request.Context(), c.Param("owner"))
	if err != nil {
		g.domainError(c, err)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (g *Gateway) handleJournalRemove(c *gin.Context) {
	if g.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": journal.ErrStorageUnavailable.Error()})
		return
	}
	err := g.journal.Remove(c.Request.Context(), c.Param("owner"), c.Param("name"))
	if err != nil {
		g.domainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// domainError maps engine errors to HTTP statuses, keeping the quiet
// state-machine notices distinct from hard failures.
func (g *Gateway) domainError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case session.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrAlreadyRevealed):
		status = http.StatusConflict
	case errors.Is(err, session.ErrSessionExpired):
		status = http.StatusGone
	case errors.Is(err, session.ErrUnknownReading):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrNoUndoAvailable):
		status = http.StatusConflict
	case errors.Is(err, render.ErrRenderFailed):
		status = http.StatusBadGateway
	case errors.Is(err, journal.ErrStaleVersion):
		status = http.StatusConflict
	case errors.Is(err, journal.ErrDuplicateName):
		status = http.StatusConflict
	case errors.Is(err, journal.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, journal.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		g.logger.Error("request failed", "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
