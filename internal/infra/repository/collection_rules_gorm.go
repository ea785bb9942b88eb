package repository

import (
	"menswear/internal/domain/model"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ルールを商品検索の条件に変換してtxに足す。
// in_stock_onlyはルールグループの外側で常にANDになる。
func ApplyRules(tx *gorm.DB, rules model.CollectionRules) *gorm.DB {
	rules = rules.Normalize()

	if rules.InStockOnly {
		tx = tx.Where("total_stock > ?", 0)
	}
	if expr, ok := RulesExpression(rules); ok {
		tx = tx.Where(expr)
	}
	return tx
}

// 条件ごとに1つの述語を作り、matchに応じてAND/ORで束ねる。
// 条件が無ければfalse。
func RulesExpression(rules model.CollectionRules) (clause.Expression, bool) {
	preds := make([]clause.Expression, 0, 5)

	if len(rules.ColorFamilies) > 0 {
		preds = append(preds, clause.Expr{SQL: "LOWER(color_family) IN ?", Vars: []interface{}{rules.ColorFamilies}})
	}
	if len(rules.Categories) > 0 {
		preds = append(preds, clause.Expr{SQL: "category IN ?", Vars: []interface{}{rules.Categories}})
	}
	if len(rules.Tags) > 0 {
		// どれか1つでも持っていれば一致
		preds = append(preds, clause.Expr{SQL: "tags && ?", Vars: []interface{}{pq.Array(rules.Tags)}})
	}

	switch {
	case rules.PriceMin != nil && rules.PriceMax != nil:
		preds = append(preds, clause.Expr{SQL: "price BETWEEN ? AND ?", Vars: []interface{}{*rules.PriceMin, *rules.PriceMax}})
	case rules.PriceMin != nil:
		preds = append(preds, clause.Expr{SQL: "price >= ?", Vars: []interface{}{*rules.PriceMin}})
	case rules.PriceMax != nil:
		preds = append(preds, clause.Expr{SQL: "price <= ?", Vars: []interface{}{*rules.PriceMax}})
	}

	if len(rules.Attributes) > 0 {
		// 属性はすべてのキーが一致して1つの述語
		attrs := make([]clause.Expression, 0, len(rules.Attributes))
		for _, k := range rules.AttributeKeys() {
			attrs = append(attrs, datatypes.JSONQuery("smart_attributes").Equals(rules.Attributes[k], k))
		}
		preds = append(preds, clause.And(attrs...))
	}

	if len(preds) == 0 {
		return nil, false
	}
	if rules.Match == model.RuleMatchAny {
		return clause.Or(preds...), true
	}
	return clause.And(preds...), true
}
