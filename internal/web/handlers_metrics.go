package web

import (
	"net/http"

	"github.com/JonMunkholm/coverage/internal/coverage"
	"github.com/go-chi/chi/v5"
)

// MetricResponse is the JSON body of every single-metric endpoint.
type MetricResponse struct {
	WorkbookID string           `json:"workbook_id"`
	Metric     string           `json:"metric"`
	Terms      []string         `json:"terms,omitempty"`
	Value      any              `json:"value"`
	Charts     []coverage.Chart `json:"charts,omitempty"`
}

// metricFunc computes one metric. Charts it draws are recorded per request.
type metricFunc func(a *coverage.Analyzer, terms []string) (any, error)

// metric builds a handler for a single metric. Metrics that use the
// configured keyword slots instead of request terms pass usesTerms=false.
// Tabular results are served as CSV with ?format=csv.
func (s *Server) metric(name string, usesTerms bool, fn metricFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		base, _, err := s.service.Workbook(id)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		var terms []string
		if usesTerms {
			terms = s.service.ResolveTerms(parseTerms(r))
		}

		charts := &coverage.ChartRecorder{}
		value, err := fn(base.WithRenderer(charts), terms)
		if err != nil {
			s.respondError(w, r, err)
			return
		}

		if t, ok := value.(coverage.Tabular); ok && wantsCSV(r) {
			writeCSV(w, r, name, t)
			return
		}

		writeJSON(w, r, http.StatusOK, MetricResponse{
			WorkbookID: id,
			Metric:     name,
			Terms:      terms,
			Value:      value,
			Charts:     charts.Charts(),
		})
	}
}

func (s *Server) handleMentions(w http.ResponseWriter, r *http.Request) {
	s.metric("mentions", true, func(a *coverage.Analyzer, terms []string) (any, error) {
		return a.TotalMentions(terms...)
	})(w, r)
}

func (s *Server) handleHeadlineMentions(w http.ResponseWriter, r *http.Request) {
	s.metric("headline_mentions", true, func(a *coverage.Analyzer, terms []string) (any, error) {
		return a.HeadlineMentions(terms...)
	})(w, r)
}

func (s *Server) handleReach(w http.ResponseWriter, r *http.Request) {
	s.metric("reach", true, func(a *coverage.Analyzer, terms []string) (any, error) {
		return a.ReachSum(terms...)
	})(w, r)
}

func (s *Server) handleAVE(w http.ResponseWriter, r *http.Request) {
	s.metric("ave", true, func(a *coverage.Analyzer, terms []string) (any, error) {
		return a.AVESum(terms...)
	})(w, r)
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	s.metric("sentiment", true, func(a *coverage.Analyzer, terms []string) (any, error) {
		return a.SentimentCounts(terms...)
	})(w, r)
}

func (s *Server) handleTrendline(w http.ResponseWriter, r *http.Request) {
	s.metric("trendline", true, func(a *coverage.Analyzer, terms []string) (any, error) {
		return a.DailyTrendline(terms...)
	})(w, r)
}

func (s *Server) handleTopSources(w http.ResponseWriter, r *http.Request) {
	s.metric("top_sources", true, func(a *coverage.Analyzer, terms []string) (any, error) {
		return a.TopSources(terms...)
	})(w, r)
}

func (s *Server) handleTopAuthors(w http.ResponseWriter, r *http.Request) {
	s.metric("top_authors", true, func(a *coverage.Analyzer, terms []string) (any, error) {
		return a.TopAuthors(terms...)
	})(w, r)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.metric("summary", false, func(a *coverage.Analyzer, _ []string) (any, error) {
		return a.Summary()
	})(w, r)
}

func (s *Server) handleSentimentOverview(w http.ResponseWriter, r *http.Request) {
	s.metric("sentiment_overview", false, func(a *coverage.Analyzer, _ []string) (any, error) {
		return a.SentimentOverview()
	})(w, r)
}

// handleProminence scores each ?keyword= value as its own group. With no
// keyword the selected slots form one group each.
func (s *Server) handleProminence(w http.ResponseWriter, r *http.Request) {
	s.metric("prominence", true, func(a *coverage.Analyzer, terms []string) (any, error) {
		groups := make([]coverage.KeywordGroup, len(terms))
		for i, t := range terms {
			groups[i] = coverage.Terms(t)
		}
		return a.ProminenceScores(groups...)
	})(w, r)
}
