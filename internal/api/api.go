package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/arcadelab/relay/internal/domain"
	"github.com/arcadelab/relay/internal/errors"
	"github.com/arcadelab/relay/internal/leaderboard"
	"github.com/arcadelab/relay/internal/transport/ws"
)

type Config struct {
	Router      *gin.Engine
	WS          *ws.Handler
	Leaderboard *leaderboard.Service
}

type API struct {
	ws *ws.Handler
	ls *leaderboard.Service
}

func New(c Config) *API {
	a := &API{
		ws: c.WS,
		ls: c.Leaderboard,
	}

	// The upgrade demux runs ahead of routing so a WebSocket handshake on
	// any path reaches the relay. Plain requests fall through to the
	// leaderboard routes or the router's not-found response.
	c.Router.Use(a.demuxUpgrade)
	c.Router.GET("/leaderboard", a.getLeaderboard)
	c.Router.POST("/leaderboard", a.submitScore)

	return a
}

func (a *API) demuxUpgrade(c *gin.Context) {
	if websocket.IsWebSocketUpgrade(c.Request) {
		a.ws.Serve(c.Writer, c.Request)
		c.Abort()
		return
	}

	c.Next()
}

func (a *API) getLeaderboard(c *gin.Context) {
	entries, err := a.ls.Top(c.Request.Context(), leaderboard.TopRequest{})
	if err != nil {
		e := errors.Convert(err)
		c.JSON(e.HTTPStatusCode(), gin.H{"error": e.Code.String()})
		return
	}

	if entries == nil {
		// An empty board serializes as [], not null.
		entries = []domain.LeaderboardEntry{}
	}

	c.JSON(http.StatusOK, entries)
}

func (a *API) submitScore(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
		// A pointer so a missing or non-numeric score is distinguishable
		// from zero.
		Score *float64 `json:"score"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.Score == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid"})
		return
	}

	err := a.ls.SubmitScore(c.Request.Context(), leaderboard.SubmitScoreRequest{
		Name:  req.Name,
		Score: *req.Score,
	})
	if err != nil {
		e := errors.Convert(err)
		if e.Code == errors.CodeInvalidArgument {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid"})
			return
		}

		c.JSON(e.HTTPStatusCode(), gin.H{"error": e.Code.String()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
