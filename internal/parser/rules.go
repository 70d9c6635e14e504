package parser

import (
	"regexp"

	"voicebook/internal/core"
)

// Category labels produced by the default table.
const (
	CategoryDining    = "餐飲"
	CategoryTransport = "交通"
	CategoryRent      = "租金"
)

type (
	// DateRule shifts the reference day by OffsetDays when Pattern matches.
	DateRule struct {
		Pattern    *regexp.Regexp
		OffsetDays int
	}

	AttributionRule struct {
		Pattern *regexp.Regexp
		Attr    core.Attribution
	}

	CategoryRule struct {
		Pattern  *regexp.Regexp
		Category string
	}
)

// AmountPattern finds the first run of digits with an optional fraction.
var AmountPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// Rule tables are evaluated in order and the first match wins.
var (
	DefaultDateRules = []DateRule{
		{Pattern: regexp.MustCompile(`昨天|昨日|尋日|琴日`), OffsetDays: -1},
	}

	// Income is checked before fixed so "固定收入" is income.
	DefaultAttributionRules = []AttributionRule{
		{Pattern: regexp.MustCompile(`收入`), Attr: core.AttrIncome},
		{Pattern: regexp.MustCompile(`固定`), Attr: core.AttrFixed},
	}

	DefaultCategoryRules = []CategoryRule{
		{Pattern: regexp.MustCompile(`餐|午餐|晚餐|早餐`), Category: CategoryDining},
		{Pattern: regexp.MustCompile(`車|交通|地鐵`), Category: CategoryTransport},
		{Pattern: regexp.MustCompile(`租|房`), Category: CategoryRent},
	}
)

func matchDate(rules []DateRule, text string) int {
	for _, r := range rules {
		if r.Pattern.MatchString(text) {
			return r.OffsetDays
		}
	}
	return 0
}

func matchAttribution(rules []AttributionRule, text string) core.Attribution {
	for _, r := range rules {
		if r.Pattern.MatchString(text) {
			return r.Attr
		}
	}
	return core.AttrVariable
}

func matchCategory(rules []CategoryRule, text string) string {
	for _, r := range rules {
		if r.Pattern.MatchString(text) {
			return r.Category
		}
	}
	return ""
}
