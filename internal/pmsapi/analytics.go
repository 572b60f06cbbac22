package pmsapi

import (
	"context"
	"net/url"

	"github.com/iliyamo/hotel-pms-console/internal/model"
)

// Analytics panels.  These endpoints are optional on many deployments and
// callers treat every failure as an empty panel.
const (
	PanelAIRecommendations = "ai_recommendations"
	PanelRateLeakage       = "rate_leakage"
	PanelHistoricalTrends  = "historical_trends"
	PanelOverbookingRisk   = "overbooking_risk"
)

var panelPaths = map[string]string{
	PanelAIRecommendations: "/ai/pricing/recommendations",
	PanelRateLeakage:       "/deluxe/rate-leakage",
	PanelHistoricalTrends:  "/analytics/historical-trends",
	PanelOverbookingRisk:   "/enterprise/overbooking-risk",
}

// KnownPanel reports whether name is an analytics panel.
func KnownPanel(name string) bool {
	_, ok := panelPaths[name]
	return ok
}

// PanelNames lists the panels in display order.
func PanelNames() []string {
	return []string{PanelAIRecommendations, PanelRateLeakage, PanelHistoricalTrends, PanelOverbookingRisk}
}

// Panel reads the rows of one analytics panel for the given window.  Rows are
// opaque objects rendered by the browser.
func (c *Client) Panel(ctx context.Context, name string, from, to model.Date) ([]map[string]any, error) {
	path, ok := panelPaths[name]
	if !ok {
		return nil, &APIError{Status: 404, Message: "unknown panel " + name}
	}
	q := url.Values{}
	q.Set("start_date", from.String())
	q.Set("end_date", to.String())
	return list[map[string]any](ctx, c, path, q, "data")
}
