package partner

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Kamar-Folarin/listing-sync/internal/models"
)

// Endpoints builds partner API URLs
type Endpoints struct {
	BaseURL string
	Lang    string
}

// Listing returns the collection listing URL, e.g. /adverts?lang=ro
func (e Endpoints) Listing(c models.Collection) string {
	return e.BaseURL + "/" + url.PathEscape(c.String()) + e.query()
}

// Detail returns the item detail URL, e.g. /adverts/42?lang=ro
func (e Endpoints) Detail(c models.Collection, id any) (string, error) {
	segment, err := idSegment(id)
	if err != nil {
		return "", err
	}
	return e.BaseURL + "/" + url.PathEscape(c.String()) + "/" + url.PathEscape(segment) + e.query(), nil
}

func (e Endpoints) query() string {
	if e.Lang == "" {
		return ""
	}
	return "?" + url.Values{"lang": {e.Lang}}.Encode()
}

func idSegment(id any) (string, error) {
	switch v := id.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("empty identity")
		}
		return v, nil
	case json.Number:
		if v == "" {
			return "", fmt.Errorf("empty identity")
		}
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return "", fmt.Errorf("unsupported identity type %T", id)
	}
}
