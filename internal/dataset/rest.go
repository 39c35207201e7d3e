package dataset

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// RESTSource reads price rows from a PostgREST-style table endpoint
// (GET {base}/rest/v1/scrap_prices?select=...), authenticated with a service
// key sent both as apikey header and bearer token.
type RESTSource struct {
	base string
	key  string
	rest *resty.Client
}

func NewRESTSource(base, key string, timeout time.Duration) *RESTSource {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &RESTSource{base: base, key: key, rest: r}
}

func (s *RESTSource) Name() string { return "rest" }

// restRow tolerates base_price arriving as either a JSON number or string;
// cleaning decides whether the text is usable.
type restRow struct {
	ScrapType      string `json:"scrap_type"`
	SubCategory    string `json:"sub_category"`
	SubSubCategory string `json:"sub_sub_category"`
	BasePrice      text   `json:"base_price"`
}

type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if string(data) == "null" {
		*t = ""
		return nil
	}
	*t = text(data)
	return nil
}

func (s *RESTSource) Fetch(ctx context.Context) ([]Raw, error) {
	var rows []restRow
	resp, err := s.rest.R().
		SetContext(ctx).
		SetHeader("apikey", s.key).
		SetHeader("Authorization", "Bearer "+s.key).
		SetQueryParam("select", "scrap_type,sub_category,sub_sub_category,base_price").
		SetResult(&rows).
		Get(s.base + "/rest/v1/scrap_prices")
	if err != nil {
		return nil, fmt.Errorf("fetch scrap_prices: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch scrap_prices: %s: %s", resp.Status(), resp.String())
	}

	raws := make([]Raw, len(rows))
	for i, row := range rows {
		raws[i] = Raw{
			ScrapType:      row.ScrapType,
			SubCategory:    row.SubCategory,
			SubSubCategory: row.SubSubCategory,
			BasePrice:      string(row.BasePrice),
		}
	}
	return raws, nil
}
