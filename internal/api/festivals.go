package api

import (
	"github.com/gin-gonic/gin"

	"astrascore/internal/festival"
)

func ListFestivals(festivals *festival.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := festivals.ListFestivals(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(200, out)
	}
}

func GetFestival(festivals *festival.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := festivals.GetFestival(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(200, f)
	}
}

// POST /api/festivals creates or replaces a festival and projects its boards.
func SaveFestival(festivals *festival.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req festival.Festival
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		f, err := festivals.SaveFestival(c.Request.Context(), req)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(200, f)
	}
}

func FestivalStats(festivals *festival.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := festivals.Stats(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(200, s)
	}
}

func FestivalStandings(festivals *festival.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := festivals.Standings(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(200, out)
	}
}

func ReconcileFestival(festivals *festival.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := festivals.Reconcile(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(200, gin.H{"ok": true, "written": n})
	}
}
