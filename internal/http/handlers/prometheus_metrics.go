package handlers

import (
	"bytes"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"
)

var (
	chatMessagesTotal   *prometheus.CounterVec
	chatMessageDuration *prometheus.HistogramVec
	botLookupsTotal     *prometheus.CounterVec

	metricsOnce sync.Once
)

// InitPrometheusMetrics registers the service collectors with the default
// registry. Calling it more than once is a no-op.
func InitPrometheusMetrics() {
	metricsOnce.Do(func() {
		chatMessagesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "botrelay",
				Name:      "chat_messages_total",
				Help:      "Chat messages handled, by bot and outcome.",
			},
			[]string{"bot", "outcome"},
		)
		chatMessageDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "botrelay",
				Name:      "chat_message_duration_seconds",
				Help:      "Time spent answering chat messages, including the AI call.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"outcome"},
		)
		botLookupsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "botrelay",
				Name:      "bot_lookups_total",
				Help:      "Public bot detail lookups, by outcome.",
			},
			[]string{"outcome"},
		)
		prometheus.MustRegister(chatMessagesTotal, chatMessageDuration, botLookupsTotal)
	})
}

func botLabel(id uint) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}

// MetricsHandler serves every registered metric in the Prometheus text format.
func MetricsHandler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		families, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to gather metrics")
			return
		}
		writeMetrics(ctx, families)
	}
}

// filterByLabel keeps, for families that use the label, only the series whose
// label equals value. Families without the label are passed through.
func filterByLabel(families []*dto.MetricFamily, name, value string) []*dto.MetricFamily {
	filtered := make([]*dto.MetricFamily, 0, len(families))
	for _, mf := range families {
		hasLabel := false
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == name {
					hasLabel = true
					break
				}
			}
			if hasLabel {
				break
			}
		}

		if !hasLabel {
			filtered = append(filtered, mf)
			continue
		}

		var kept []*dto.Metric
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == name && l.GetValue() == value {
					kept = append(kept, m)
					break
				}
			}
		}

		if len(kept) == 0 {
			continue
		}

		filtered = append(filtered, &dto.MetricFamily{
			Name:   mf.Name,
			Help:   mf.Help,
			Type:   mf.Type,
			Metric: kept,
		})
	}
	return filtered
}

func writeMetrics(ctx *fasthttp.RequestCtx, families []*dto.MetricFamily) {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, format)
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to encode metrics")
			return
		}
	}

	ctx.SetContentType(string(format))
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(buf.Bytes())
}
