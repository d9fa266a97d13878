package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/mibands/internal/auth"
	"github.com/desertthunder/mibands/internal/links"
	"github.com/desertthunder/mibands/internal/mapview"
	"github.com/desertthunder/mibands/internal/metrics"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/search"
	"github.com/desertthunder/mibands/internal/server"
	"github.com/desertthunder/mibands/internal/shared"
)

// AdminTokenHeader carries the shared admin token for POST /api/admin/add-band.
const AdminTokenHeader = "X-Admin-Token"

// BandResponse is the body of a successful band write.
type BandResponse struct {
	OK   bool         `json:"ok"`
	Band *models.Band `json:"band,omitempty"`
}

// ListResponse is one page of GET /api/bands.
type ListResponse struct {
	Bands    []models.Band `json:"bands"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// NormalizedLinks is the body of POST /api/links/normalize.
type NormalizedLinks struct {
	Links          links.Set `json:"links"`
	InstagramLabel string    `json:"instagram_label,omitempty"`
	SpotifyEmbed   string    `json:"spotify_embed,omitempty"`
	YouTubeEmbed   string    `json:"youtube_embed,omitempty"`
}

// writeError maps a service error to its status code and JSON body.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr.Fields))
		for _, f := range verr.Fields {
			fields[f.Field] = f.Message
		}
		server.WriteJSON(w, http.StatusBadRequest, server.ErrorResponse{Error: verr.Error(), Fields: fields})
	case errors.Is(err, shared.ErrInvalidInput):
		server.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrNotAuthenticated):
		server.WriteError(w, http.StatusUnauthorized, shared.ErrNotAuthenticated.Error())
	case errors.Is(err, shared.ErrForbidden):
		server.WriteError(w, http.StatusForbidden, shared.ErrForbidden.Error())
	case errors.Is(err, shared.ErrBandNotFound):
		server.WriteError(w, http.StatusNotFound, shared.ErrBandNotFound.Error())
	default:
		a.logger.Error("api request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		server.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func (a *App) apiListBands(w http.ResponseWriter, r *http.Request) {
	q := search.ParseQuery(r.URL.Query(), a.pageSize())
	bands, total, err := a.listBands(r.Context(), q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, ListResponse{Bands: bands, Total: total, Page: q.Page, PageSize: q.PageSize})
}

func (a *App) apiGetBand(w http.ResponseWriter, r *http.Request) {
	b, err := a.bands.Find(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, b)
}

// apiBandPreview returns {"preview": null} when the band has no website or the fetch fails.
func (a *App) apiBandPreview(w http.ResponseWriter, r *http.Request) {
	b, err := a.bands.Find(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var p *models.LinkPreview
	if website, ok := links.Normalize(b.Links.Website); ok {
		p = a.previews.Fetch(r.Context(), website)
	}
	server.WriteJSON(w, http.StatusOK, map[string]*models.LinkPreview{"preview": p})
}

func (a *App) apiMarkers(w http.ResponseWriter, r *http.Request) {
	bands, _, err := a.listBands(r.Context(), mapQuery(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if err := mapview.Draw(mapview.NewGeoJSON(w), mapview.DefaultView, mapview.Markers(bands)); err != nil {
		a.logger.Error("failed to write markers", "error", err)
	}
}

func (a *App) apiNormalizeLinks(w http.ResponseWriter, r *http.Request) {
	var in links.Set
	if err := server.DecodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	d := links.Derive(in)
	server.WriteJSON(w, http.StatusOK, NormalizedLinks{
		Links:          in.Canonical(),
		InstagramLabel: d.InstagramLabel,
		SpotifyEmbed:   d.SpotifyEmbed,
		YouTubeEmbed:   d.YouTubeEmbed,
	})
}

func (a *App) apiAddBand(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	a.createBand(w, r, id.UserID)
}

// createBand decodes a [models.BandInput] and stores it owned by ownerID ("" for none).
func (a *App) createBand(w http.ResponseWriter, r *http.Request, ownerID string) {
	var in models.BandInput
	if err := server.DecodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}

	b, err := in.Band(ownerID)
	if err == nil {
		err = a.bands.Create(r.Context(), b)
	}
	metrics.RecordBandWrite("create", err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.logger.Info("band created", "id", b.ID, "slug", b.Slug, "owner", ownerID)
	server.WriteJSON(w, http.StatusOK, BandResponse{OK: true, Band: b})
}

func (a *App) apiUpdateBand(w http.ResponseWriter, r *http.Request) {
	var patch models.BandPatch
	if err := server.DecodeJSON(r, &patch); err != nil {
		a.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(patch.ID) == "" {
		server.WriteError(w, http.StatusBadRequest, "id is required")
		return
	}
	if patch.Empty() {
		server.WriteError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	b, err := a.bands.Update(r.Context(), id.UserID, patch)
	metrics.RecordBandWrite("update", err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, BandResponse{OK: true, Band: b})
}

func (a *App) apiUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var in models.ProfileInput
	if err := server.DecodeJSON(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	p, err := in.Profile(id.UserID)
	if err == nil {
		err = a.profiles.Upsert(r.Context(), p)
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, BandResponse{OK: true})
}

// apiAdminAddBand creates an unowned band. The caller needs the configured admin token
// or an admin session; with neither configured the route does not exist.
func (a *App) apiAdminAddBand(w http.ResponseWriter, r *http.Request) {
	id, signedIn := auth.IdentityFrom(r.Context())
	isAdmin := signedIn && id.Admin
	token := a.cfg.Auth.AdminToken
	sent := r.Header.Get(AdminTokenHeader)

	switch {
	case isAdmin:
	case token == "":
		server.WriteError(w, http.StatusNotFound, "not found")
		return
	case sent == "" && !signedIn:
		server.WriteError(w, http.StatusUnauthorized, shared.ErrNotAuthenticated.Error())
		return
	case subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1:
		server.WriteError(w, http.StatusForbidden, shared.ErrForbidden.Error())
		return
	}
	a.createBand(w, r, "")
}
