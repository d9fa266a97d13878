package search

import (
	"math"
	"net/url"
	"reflect"
	"testing"

	"github.com/desertthunder/mibands/internal/models"
)

func fixtures() []models.Band {
	return []models.Band{
		{ID: "1", Name: "Lake Effect", City: "Grand Rapids", Region: models.RegionWestMI, Genres: []string{"Indie Rock"}},
		{ID: "2", Name: "Huron Haze", City: "Ann Arbor", Region: models.RegionAnnArbor, Genres: []string{"Dream Pop", "Shoegaze"}},
		{ID: "3", Name: "Motor Mouth", City: "Detroit", Region: models.RegionDetroitMetro, Genres: []string{"Punk", "R&B"}},
		{ID: "4", Name: "Los Lagos", City: "Saginaw", Region: models.RegionFlintSaginaw, Genres: []string{"Música Regional"}},
	}
}

func ids(bands []models.Band) []string {
	out := make([]string, len(bands))
	for i, b := range bands {
		out[i] = b.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tc := []struct {
		name   string
		query  string
		region string
		want   []string
	}{
		{name: "Region Only", region: "Ann Arbor", want: []string{"2"}},
		{name: "Genre Query Ignores Case", query: "dream", want: []string{"2"}},
		{name: "Query Is Trimmed", query: "  PUNK ", want: []string{"3"}},
		{name: "Matches City", query: "grand rap", want: []string{"1"}},
		{name: "Matches Region Text", query: "detroit metro", want: []string{"3"}},
		{name: "Empty Query All Regions", want: []string{"1", "2", "3", "4"}},
		{name: "Sentinel Passes All", region: models.AllRegions, want: []string{"1", "2", "3", "4"}},
		{name: "Both Predicates Must Pass", query: "punk", region: "Ann Arbor", want: []string{}},
		{name: "No Match", query: "polka", want: []string{}},
		{name: "Ampersand in Genre", query: "r&b", want: []string{"3"}},
		{name: "Non-ASCII Case Folded", query: "MÚSICA", want: []string{"4"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(fixtures(), tt.query, tt.region))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter(%q, %q) = %v, want %v", tt.query, tt.region, got, tt.want)
			}
		})
	}

	t.Run("Idempotent and Order Preserving", func(t *testing.T) {
		once := Filter(fixtures(), "o", "")
		twice := Filter(once, "o", "")
		if !reflect.DeepEqual(ids(once), ids(twice)) {
			t.Errorf("%v != %v", ids(once), ids(twice))
		}
	})

	t.Run("Input Is Not Modified", func(t *testing.T) {
		in := fixtures()
		Filter(in, "punk", "")
		if len(in) != 4 || in[0].ID != "1" {
			t.Error("input slice changed")
		}
	})

	t.Run("Nil Input", func(t *testing.T) {
		if got := Filter(nil, "x", ""); got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})
}

func TestQuery(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		q := ParseQuery(url.Values{}, 24)
		want := Query{Region: models.AllRegions, Page: 1, PageSize: 24}
		if q != want {
			t.Errorf("got %+v, want %+v", q, want)
		}
		if q.Offset() != 0 || q.RegionFilter() != "" {
			t.Error("default query should not skip or filter")
		}
		if enc := q.Values(24).Encode(); enc != "" {
			t.Errorf("defaults should be omitted, got %q", enc)
		}
	})

	t.Run("Parses and Clamps", func(t *testing.T) {
		v := url.Values{"q": {" dream "}, "region": {"west mi"}, "page": {"3"}, "pageSize": {"9999"}}
		q := ParseQuery(v, 24)
		if q.Q != "dream" || q.Region != "West MI" || q.Page != 3 || q.PageSize != MaxPageSize {
			t.Errorf("unexpected query %+v", q)
		}
		if q.Offset() != 1000 {
			t.Errorf("Offset() = %d", q.Offset())
		}
	})

	t.Run("Invalid Values Fall Back", func(t *testing.T) {
		v := url.Values{"region": {"Ohio"}, "page": {"-2"}, "pageSize": {"abc"}}
		q := ParseQuery(v, 24)
		if q.Region != models.AllRegions || q.Page != 1 || q.PageSize != 24 {
			t.Errorf("unexpected query %+v", q)
		}
	})

	t.Run("Huge Page Is Capped", func(t *testing.T) {
		for _, size := range []string{"1", "24", "500"} {
			v := url.Values{"page": {"9223372036854775807"}, "pageSize": {size}}
			q := ParseQuery(v, 24)
			if q.Page != MaxPage(q.PageSize) {
				t.Errorf("pageSize %s: Page = %d, want %d", size, q.Page, MaxPage(q.PageSize))
			}
			if off := q.Offset(); off < 0 || off > math.MaxInt32 {
				t.Errorf("pageSize %s: Offset() = %d out of range", size, off)
			}
			p := Page{Query: q, Total: 100}
			if p.HasNext() || !p.HasPrev() {
				t.Errorf("pageSize %s: prev=%v next=%v", size, p.HasPrev(), p.HasNext())
			}
		}
	})

	t.Run("Round Trips through the URL", func(t *testing.T) {
		in := Query{Q: "lake", Region: "UP", Page: 2, PageSize: 50}
		href := in.Href("/", 24)
		u, err := url.Parse(href)
		if err != nil {
			t.Fatalf("bad href %q: %v", href, err)
		}
		if out := ParseQuery(u.Query(), 24); out != in {
			t.Errorf("round trip %+v -> %q -> %+v", in, href, out)
		}
	})

	t.Run("Href without Params", func(t *testing.T) {
		if got := (Query{Region: models.AllRegions, Page: 1, PageSize: 24}).Href("/map", 24); got != "/map" {
			t.Errorf("Href() = %q", got)
		}
	})
}

func TestPage(t *testing.T) {
	p := Page{Query: Query{Page: 1, PageSize: 10}, Total: 25}
	if p.HasPrev() || !p.HasNext() || p.Pages() != 3 {
		t.Errorf("first page wrong: prev=%v next=%v pages=%d", p.HasPrev(), p.HasNext(), p.Pages())
	}

	p.Query = p.Query.WithPage(3)
	if !p.HasPrev() || p.HasNext() {
		t.Errorf("last page wrong: prev=%v next=%v", p.HasPrev(), p.HasNext())
	}

	if (Page{Query: Query{PageSize: 10}}).Pages() != 1 {
		t.Error("empty result should still have one page")
	}
}
