package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"astrascore/internal/scoreboard"
)

// ------------------- Events -------------------

// GET /api/events?q=&category=sports|academic|cultural|esports|all
func ListEvents(events *scoreboard.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := events.SearchEvents(c.Request.Context(), c.Query("q"), c.Query("category"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(200, out)
	}
}

func GetEvent(events *scoreboard.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := events.GetEvent(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(200, e)
	}
}

// GET /api/events/:id/board is the polling target of public displays.
func GetBoard(events *scoreboard.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := events.GetEvent(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(200, scoreboard.BoardFor(e))
	}
}

func CreateEvent(events *scoreboard.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req scoreboard.EventInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		e, err := events.CreateEvent(c.Request.Context(), req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(201, e)
	}
}

// POST /api/events/:id/score {team, delta}. A repeated Idempotency-Key gets
// the first answer back and the delta is not applied twice.
func ApplyScore(events *scoreboard.Service, keys *IdempotencyCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Team  *int `json:"team" binding:"required"`
			Delta *int `json:"delta" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		id := c.Param("id")
		apply := func() (int, any) {
			e, err := events.ApplyScoreDelta(c.Request.Context(), id, *req.Team, *req.Delta)
			if err != nil {
				_ = c.Error(err)
				status, body := errorBody(err)
				return status, body
			}
			return 200, e
		}

		key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if key == "" || keys == nil {
			status, body := apply()
			c.JSON(status, body)
			return
		}
		status, body, replayed, err := keys.Do(c.Request.Context(), id+"/"+key, apply)
		if err != nil {
			fail(c, err)
			return
		}
		if replayed {
			c.Header("Idempotent-Replayed", "true")
		}
		c.JSON(status, body)
	}
}

// ------------------- Timer -------------------

// Toggling starts or stops the server-side clock loop of a time-based event.
func ToggleTimer(events *scoreboard.Service, timers *scoreboard.TimerScheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := events.ToggleTimer(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		if timers != nil {
			timers.Sync(e)
		}
		c.JSON(200, e)
	}
}

// TickTimer advances the clock by hand; used by displays that drive their own
// clock when no scheduler runs.
func TickTimer(events *scoreboard.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := events.TickTimer(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(200, e)
	}
}

func ResetTimer(events *scoreboard.Service, timers *scoreboard.TimerScheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := events.ResetTimer(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		if timers != nil {
			timers.Sync(e)
		}
		c.JSON(200, e)
	}
}

func SetPeriod(events *scoreboard.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Period string `json:"period"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		e, err := events.SetPeriod(c.Request.Context(), c.Param("id"), req.Period)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(200, e)
	}
}

// ------------------- Status / logs -------------------

func SetStatus(events *scoreboard.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Status scoreboard.Status `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		e, err := events.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(200, e)
	}
}

func AppendLog(events *scoreboard.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Message string `json:"message"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		e, err := events.AppendLog(c.Request.Context(), c.Param("id"), req.Message)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(200, e)
	}
}

// GET /api/categories lists categories with their subcategories.
func Categories() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, scoreboard.Catalog())
	}
}
