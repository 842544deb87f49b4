package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"loot-tracker/internal/ledger"
	"loot-tracker/internal/loot"
	"loot-tracker/internal/tracker"
)

type lootView struct {
	Items []itemView `json:"items"`
	Total string     `json:"total"`
	Raw   uint64     `json:"total_silver"`
}

type itemView struct {
	ledger.Entry
	Value string `json:"value"`
}

func newLootView(snap ledger.Snapshot) lootView {
	items := make([]itemView, 0, len(snap))
	for _, e := range snap.Sorted() {
		items = append(items, itemView{Entry: e, Value: e.Value().String()})
	}
	total := snap.Total()
	return lootView{Items: items, Total: total.String(), Raw: uint64(total)}
}

func (s *Server) statusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.control.Status())
}

func (s *Server) lootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, newLootView(s.control.Snapshot()))
}

func (s *Server) historyHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": s.control.History()})
}

// streamHandler pushes a "loot" event with the current ledger and another
// after every change until the client goes away.
func (s *Server) streamHandler(c *gin.Context) {
	ctx := c.Request.Context()
	updates := s.control.Subscribe(ctx)

	c.SSEvent("loot", newLootView(s.control.Snapshot()))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("loot", newLootView(snap))
			return true
		}
	})
}

func (s *Server) startHandler(c *gin.Context) {
	err := s.control.Start(c.Request.Context())
	switch {
	case errors.Is(err, tracker.ErrAlreadyStarted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.log.Error("Failed to start session", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.control.Status())
}

func (s *Server) stopHandler(c *gin.Context) {
	if err := s.control.Stop(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.control.Status())
}

func (s *Server) resetHandler(c *gin.Context) {
	s.control.Reset()
	c.JSON(http.StatusOK, newLootView(s.control.Snapshot()))
}

func (s *Server) modeHandler(c *gin.Context) {
	var req struct {
		Mode string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, err := loot.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.control.SetMode(mode)
	c.JSON(http.StatusOK, s.control.Status())
}
