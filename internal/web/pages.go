package web

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/mibands/internal/auth"
	"github.com/desertthunder/mibands/internal/links"
	"github.com/desertthunder/mibands/internal/mapview"
	"github.com/desertthunder/mibands/internal/metrics"
	"github.com/desertthunder/mibands/internal/models"
	"github.com/desertthunder/mibands/internal/repositories"
	"github.com/desertthunder/mibands/internal/search"
	"github.com/desertthunder/mibands/internal/shared"
)

type homeData struct {
	Query    search.Query
	Regions  []string
	Bands    []models.Band
	Total    int
	Pages    int
	PrevHref string
	NextHref string
}

// listBands runs one listing query and re-applies [search.Filter] so the page shows
// exactly what the in-memory filter would.
func (a *App) listBands(ctx context.Context, q search.Query) ([]models.Band, int, error) {
	bands, total, err := a.bands.List(ctx, repositories.ListOptions{
		Region: q.RegionFilter(),
		Q:      q.Q,
		Limit:  q.PageSize,
		Offset: q.Offset(),
	})
	if err != nil {
		return nil, 0, err
	}
	return search.Filter(bands, q.Q, q.Region), total, nil
}

func (a *App) home(w http.ResponseWriter, r *http.Request) {
	q := search.ParseQuery(r.URL.Query(), a.pageSize())
	data := homeData{Query: q, Regions: models.RegionNames(), Bands: []models.Band{}}

	v := view{Data: &data}
	bands, total, err := a.listBands(r.Context(), q)
	if err != nil {
		a.logger.Error("failed to list bands", "error", err, "q", q.Q, "region", q.Region)
		v.Error = "Could not load bands right now. Try again shortly."
	} else {
		data.Bands, data.Total = bands, total
	}

	page := search.Page{Query: q, Total: data.Total}
	data.Pages = page.Pages()
	if page.HasPrev() {
		data.PrevHref = q.WithPage(q.Page-1).Href("/", a.pageSize())
	}
	if page.HasNext() {
		data.NextHref = q.WithPage(q.Page+1).Href("/", a.pageSize())
	}
	a.render(w, r, http.StatusOK, "home", v)
}

type bandData struct {
	Band    *models.Band
	Links   links.Rendered
	Preview *models.LinkPreview
	CanEdit bool
}

func (a *App) bandDetail(w http.ResponseWriter, r *http.Request) {
	b, err := a.bands.Find(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, shared.ErrBandNotFound) {
		a.render(w, r, http.StatusNotFound, "not_found", view{Title: "Not found", Data: "Band not found."})
		return
	}
	if err != nil {
		a.logger.Error("failed to load band", "slug", chi.URLParam(r, "slug"), "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := bandData{Band: b, Links: links.Derive(b.Links)}
	if data.Links.Website != "" {
		data.Preview = a.previews.Fetch(r.Context(), data.Links.Website)
	}
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		data.CanEdit = b.OwnedBy(id.UserID)
	}
	a.render(w, r, http.StatusOK, "band", view{Title: b.Name, Data: data})
}

type mapData struct {
	Count int
	Map   template.HTML
}

// mapQuery reads q and region and asks for the first [mapPageSize] bands.
func mapQuery(r *http.Request) search.Query {
	q := search.ParseQuery(r.URL.Query(), mapPageSize)
	q.Page, q.PageSize = 1, mapPageSize
	return q
}

func (a *App) mapPage(w http.ResponseWriter, r *http.Request) {
	bands, _, err := a.listBands(r.Context(), mapQuery(r))
	if err != nil {
		a.logger.Error("failed to list bands for map", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := mapview.Draw(mapview.NewLeaflet(&buf, "band-map"), mapview.DefaultView, mapview.Markers(bands)); err != nil {
		a.logger.Error("failed to draw map", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// The fragment comes from html/template, so it is already escaped.
	data := mapData{Count: len(bands), Map: template.HTML(buf.String())}
	a.render(w, r, http.StatusOK, "map", view{Title: "Map", Data: data})
}

type myBandsData struct {
	Bands   []models.Band
	Regions []string
}

func (a *App) myBands(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	bands, err := a.bands.ListByOwner(r.Context(), id.UserID)
	if err != nil {
		a.logger.Error("failed to list owned bands", "user", id.UserID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.render(w, r, http.StatusOK, "my_bands", view{
		Title: "My Bands",
		Data:  myBandsData{Bands: bands, Regions: models.RegionNames()},
	})
}

// submitForm mirrors the submit page fields as typed.
type submitForm struct {
	Name      string
	City      string
	Region    string
	Genres    string
	Website   string
	Instagram string
	Spotify   string
	YouTube   string
}

func (f submitForm) links() links.Set {
	return links.Set{Website: f.Website, Instagram: f.Instagram, Spotify: f.Spotify, YouTube: f.YouTube}
}

func (f submitForm) input() models.BandInput {
	return models.BandInput{
		Name:   f.Name,
		City:   f.City,
		Region: f.Region,
		Genres: models.SplitGenres(f.Genres),
		Links:  f.links(),
	}
}

type submitData struct {
	Form       submitForm
	Normalized links.Set
	Regions    []string
	Created    *models.Band
}

func (a *App) submitPage(w http.ResponseWriter, r *http.Request) {
	data := submitData{Form: submitForm{Region: string(models.DefaultRegion)}, Regions: models.RegionNames()}
	a.render(w, r, http.StatusOK, "submit", view{Title: "Submit a Band", Data: data})
}

// submit either previews the normalized links (action=preview) or creates the band.
func (a *App) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	form := submitForm{
		Name:      r.PostForm.Get("name"),
		City:      r.PostForm.Get("city"),
		Region:    r.PostForm.Get("region"),
		Genres:    r.PostForm.Get("genres"),
		Website:   strings.TrimSpace(r.PostForm.Get("website")),
		Instagram: strings.TrimSpace(r.PostForm.Get("instagram")),
		Spotify:   strings.TrimSpace(r.PostForm.Get("spotify")),
		YouTube:   strings.TrimSpace(r.PostForm.Get("youtube")),
	}
	data := submitData{Form: form, Normalized: form.links().Canonical(), Regions: models.RegionNames()}
	v := view{Title: "Submit a Band", Data: &data}

	if r.PostForm.Get("action") == "preview" {
		a.render(w, r, http.StatusOK, "submit", v)
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	b, err := form.input().Band(id.UserID)
	if err == nil {
		err = a.bands.Create(r.Context(), b)
	}
	metrics.RecordBandWrite("create", err)

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrInvalidInput) {
			status = http.StatusBadRequest
			v.Error = err.Error()
		} else {
			a.logger.Error("failed to create band", "error", err)
			v.Error = "Could not save the band. Try again shortly."
		}
		a.render(w, r, status, "submit", v)
		return
	}

	a.logger.Info("band submitted", "id", b.ID, "slug", b.Slug, "user", id.UserID)
	data.Created = b
	data.Form = submitForm{Region: string(models.DefaultRegion)}
	data.Normalized = links.Set{}
	a.render(w, r, http.StatusCreated, "submit", v)
}

type profileData struct {
	Name string
}

func (a *App) profilePage(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	var data profileData
	p, err := a.profiles.Get(r.Context(), id.UserID)
	switch {
	case err == nil:
		data.Name = p.Name
	case !errors.Is(err, shared.ErrProfileNotFound):
		a.logger.Error("failed to load profile", "user", id.UserID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.render(w, r, http.StatusOK, "profile", view{Title: "Profile", Data: data})
}

func (a *App) saveProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	id, _ := auth.IdentityFrom(r.Context())
	name := r.PostForm.Get("name")

	v := view{Title: "Profile", Data: profileData{Name: name}}
	p, err := models.ProfileInput{Name: &name}.Profile(id.UserID)
	if err == nil {
		err = a.profiles.Upsert(r.Context(), p)
	}
	switch {
	case err == nil:
		v.Notice = "Profile saved."
		v.Data = profileData{Name: p.Name}
		a.render(w, r, http.StatusOK, "profile", v)
	case errors.Is(err, shared.ErrInvalidInput):
		v.Error = err.Error()
		a.render(w, r, http.StatusBadRequest, "profile", v)
	default:
		a.logger.Error("failed to save profile", "user", id.UserID, "error", err)
		v.Error = "Could not save your profile. Try again shortly."
		a.render(w, r, http.StatusInternalServerError, "profile", v)
	}
}
