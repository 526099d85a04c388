package bd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"equipment-registry/pkg/types"
)

const icontainsSuffix = "__icontains"

// likeEscaper экранирует спецсимволы LIKE; в серийных номерах '_' - обычный символ.
// В PostgreSQL '\' - escape-символ LIKE по умолчанию.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern - шаблон ILIKE для поиска подстроки как есть.
func containsPattern(val string) string {
	return "%" + likeEscaper.Replace(val) + "%"
}

// ApplyListParams применяет filter[...] и sort[...] по белому списку allowedMap
// (поле в запросе -> колонка в SQL), затем limit/offset.
// filter[поле__icontains]=x превращается в ILIKE '%x%'.
func ApplyListParams(builder sq.SelectBuilder, filter types.Filter, allowedMap map[string]string) sq.SelectBuilder {
	for _, jsonField := range slices.Sorted(maps.Keys(filter.Filter)) {
		val := filter.Filter[jsonField]
		if base, ok := strings.CutSuffix(jsonField, icontainsSuffix); ok {
			dbCol, allowed := allowedMap[base]
			if !allowed {
				continue
			}
			builder = builder.Where(sq.ILike{dbCol: containsPattern(fmt.Sprint(val))})
			continue
		}

		dbCol, ok := allowedMap[jsonField]
		if !ok {
			continue
		}

		if s, ok := val.(string); ok && strings.Contains(s, ",") {
			builder = builder.Where(sq.Eq{dbCol: strings.Split(s, ",")})
		} else {
			builder = builder.Where(sq.Eq{dbCol: val})
		}
	}

	// ключи упорядочены, чтобы SQL не зависел от порядка обхода map
	if len(filter.Sort) > 0 {
		for _, jsonField := range slices.Sorted(maps.Keys(filter.Sort)) {
			dir := filter.Sort[jsonField]
			dbCol, ok := allowedMap[jsonField]
			if !ok {
				continue
			}
			sqlDir := "ASC"
			if strings.ToLower(dir) == "desc" {
				sqlDir = "DESC"
			}
			builder = builder.OrderBy(fmt.Sprintf("%s %s", dbCol, sqlDir))
		}
	}

	if filter.WithPagination {
		if filter.Limit > 0 {
			builder = builder.Limit(uint64(filter.Limit))
		}
		if filter.Offset > 0 {
			builder = builder.Offset(uint64(filter.Offset))
		}
	}

	return builder
}

// ApplySearch добавляет OR ILIKE по перечисленным колонкам.
func ApplySearch(builder sq.SelectBuilder, search string, columns ...string) sq.SelectBuilder {
	if search == "" || len(columns) == 0 {
		return builder
	}
	pattern := containsPattern(search)
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.ILike{col: pattern})
	}
	return builder.Where(or)
}
