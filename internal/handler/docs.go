package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# superyield

Allocation agent for the SuperYield vault. Every decision produced by the
reasoning model is checked against the risk rules before it is returned.

## Auth

When auth.jwt_secret is set, /api/*, /swagger and /docs require an HS256
Bearer token. Health endpoints are public.

## Routes

- GET  /healthz
- GET  /readyz
- GET  /swagger/index.html
- POST /api/agents/optimize        {vaultState, opportunities, constraints?}
- POST /api/agents/optimize-auto   {opportunities, constraints?}
- POST /api/agents/stream          text/event-stream, one "data: <json>" per event
- GET  /api/agents/stream/ws       websocket; send one request, receive events
- GET  /api/decisions              ?limit&offset&outcome&source&target_vault&since
- GET  /api/decisions/:id

## Stream events

type is one of status, info, reasoning, decision, complete, error.
decision+complete or a single error always ends the stream.
`)
	})
}
