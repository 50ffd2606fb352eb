package engine

import (
	"context"
	"strings"

	"github.com/deep-ag/copilot/internal/agent/model"
	logx "github.com/deep-ag/copilot/pkg/logger"
)

// resolveContext merges classifier output, session state and caller overrides
// into the effective (crop, location) tuple for this turn.
//
// Crop precedence: caller override > intent (when known) > session.
// Location precedence: caller override > session pre-seed, then an explicit
// address in the query geocodes over both: a fresh address always wins over
// a stale session location, while a geocode miss keeps the pre-seed intact.
//
// Side effect: a successful geocode is written back to the session
// immediately, not at end of turn, so follow-up turns see it even when this
// turn later short-circuits.
func (e *Engine) resolveContext(ctx context.Context, req model.QueryRequest, intent model.Intent, sess *model.SessionState) model.ResolvedContext {
	rc := model.ResolvedContext{
		Crop:               model.CropUnknown,
		QuestionType:       intent.QuestionType,
		OptimizationTarget: intent.OptimizationTarget,
		IsRegulatory:       isRegulatory(req.Query, intent),
	}

	switch {
	case req.Crop != "":
		rc.Crop = strings.ToLower(req.Crop)
	case intent.HasCrop():
		rc.Crop = intent.Crop
	case sess.Crop != "":
		rc.Crop = sess.Crop
	}

	// location pre-seed
	switch {
	case req.Lat != nil && req.Lon != nil:
		rc.Lat, rc.Lon, rc.Located = *req.Lat, *req.Lon, true
	case sess.HasLocation():
		rc.Lat, rc.Lon, rc.Located = *sess.Lat, *sess.Lon, true
	}
	rc.DisplayAddress = sess.LocationLabel

	if intent.LocationAddress != "" {
		if geo := e.geocodeAddress(ctx, req.SessionID, intent.LocationAddress); geo != nil {
			rc.Lat, rc.Lon, rc.Located = geo.Lat, geo.Lon, true
			rc.DisplayAddress = geo.DisplayName
		}
	}

	// Location-optimization questions work fine on regional data.
	if !rc.Located && rc.OptimizationTarget == model.OptimizeLocation {
		rc.Lat, rc.Lon, rc.Located = e.region.CenterLat, e.region.CenterLon, true
		rc.DisplayAddress = e.region.Label + " (General)"
	}

	return rc
}

// geocodeAddress resolves an explicit address and persists the coordinate to
// the session on success. Failure and no-match are both non-fatal.
func (e *Engine) geocodeAddress(ctx context.Context, sessionID, address string) *model.GeocodeResult {
	geo, err := e.geocoder.Geocode(ctx, address)
	if err != nil {
		logx.Warn().Err(err).Str("address", address).Msg("geocoding failed, keeping prior location")
		return nil
	}
	if geo == nil {
		logx.Debug().Str("address", address).Msg("geocoding found no match")
		return nil
	}

	if err := e.store.UpdateContext(ctx, sessionID, model.ContextUpdate{
		Lat:   &geo.Lat,
		Lon:   &geo.Lon,
		Label: geo.DisplayName,
	}); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to persist geocoded location")
	}
	return geo
}

// applyLocationDefault fills the regional center as the last resort once the
// gate has decided the turn may proceed without an explicit location.
func (e *Engine) applyLocationDefault(rc model.ResolvedContext) model.ResolvedContext {
	if !rc.Located {
		rc.Lat, rc.Lon, rc.Located = e.region.CenterLat, e.region.CenterLon, true
		rc.DisplayAddress = e.region.Label + " (Center)"
	}
	if rc.DisplayAddress == "" {
		rc.DisplayAddress = e.region.Label
	}
	return rc
}

// isRegulatory flags permit/compliance questions, which skip the crop gate.
func isRegulatory(query string, intent model.Intent) bool {
	return strings.Contains(strings.ToLower(query), "permit") ||
		intent.QuestionTypeContains("regulatory")
}
