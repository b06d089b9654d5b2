package handlers

import (
	"net/http"
	"strconv"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/api/models"

	"github.com/gin-gonic/gin"
)

// Rank handles GET /api/v1/compare/:id/rank
// Strategies are ordered by mean return over the aligned rolling windows.
func (h *CompareHandler) Rank(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, CodeInvalidRequest, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	var stats []analysis.RollingStats
	if run.Result.Rolling != nil {
		stats = run.Result.Rolling.Stats
	}
	c.JSON(http.StatusOK, models.RankResponse{
		ID:       run.ID,
		Rankings: rankings(stats, limit),
	})
}

func rankings(stats []analysis.RollingStats, limit int) []models.Ranking {
	out := []models.Ranking{}
	for _, st := range analysis.RankByMeanReturn(stats) {
		if st.Windows == 0 {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, models.Ranking{
			Rank:           len(out) + 1,
			Strategy:       st.Strategy,
			Windows:        st.Windows,
			MeanReturnPct:  st.MeanReturnPct,
			MaxReturnPct:   st.MaxReturnPct,
			MinReturnPct:   st.MinReturnPct,
			MeanFinalValue: st.MeanFinalValue,
		})
	}
	return out
}
