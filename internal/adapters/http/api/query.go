package api

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/seasonrank/internal/domain/grouping"
	"github.com/okian/seasonrank/internal/domain/model"
	"github.com/okian/seasonrank/internal/domain/types"
)

// parseTableKey reads season, domain and group from the query string.
// The group defaults to the all-players table.
func parseTableKey(op string, q url.Values) (types.TableKey, error) {
	season, domain, err := parsePartition(op, q)
	if err != nil {
		return types.TableKey{}, err
	}
	group := strings.TrimSpace(q.Get("group"))
	if group == "" {
		group = grouping.AllKey
	}
	return types.TableKey{Season: season, Domain: domain.String(), Group: group}, nil
}

func parsePartition(op string, q url.Values) (int, model.Domain, error) {
	season, err := strconv.Atoi(q.Get("season"))
	if err != nil || season < 1 {
		return 0, "", NewKind(op, ErrBadRequest, "season must be a positive integer")
	}
	domain, err := model.ParseDomain(q.Get("domain"))
	if err != nil {
		return 0, "", NewKind(op, ErrBadRequest, err.Error())
	}
	return season, domain, nil
}
