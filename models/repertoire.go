package models

import (
	"fmt"
	"sort"
	"strings"
)

// LineColor is the side an opening line is prepared for.
type LineColor string

const (
	ColorWhite LineColor = "white"
	ColorBlack LineColor = "black"
)

// OpeningLine is one node of a repertoire tree. Children are deeper
// continuations; the tree is strict (author-supplied, no cycles) and
// owned exclusively by the repertoire document. A line has no identity
// outside its position in the tree.
type OpeningLine struct {
	// Family is the opening family name (e.g., "sicilian_defence").
	Family string `json:"family"`

	// Color is the side this line is prepared for: white or black.
	Color LineColor `json:"color"`

	// Moves is the ply sequence this node adds, in SAN, continuing
	// from the parent node's position (or the starting position for
	// root nodes).
	Moves []string `json:"moves"`

	// IsMainline marks the primary recommended continuation, as
	// opposed to a side variation.
	IsMainline bool `json:"isMainline"`

	// Notes is free-form author commentary.
	Notes string `json:"notes,omitempty"`

	Children []OpeningLine `json:"children,omitempty"`
}

// RepertoireValidationError aggregates every violating line found in a
// repertoire document. The analyzer refuses to produce a report until
// all violations are resolved, since metric quality depends on a fully
// valid tree.
type RepertoireValidationError struct {
	Violations []string
}

func (e *RepertoireValidationError) Error() string {
	return fmt.Sprintf("repertoire validation failed with %d violation(s): %s",
		len(e.Violations), strings.Join(e.Violations, "; "))
}

// ValidateRepertoire walks the whole tree and collects every violation:
// empty family names, colors outside {white, black}, and empty move
// sequences. It returns nil for a valid tree, otherwise a
// *RepertoireValidationError listing all problems, not just the first.
func ValidateRepertoire(roots []OpeningLine) error {
	var violations []string
	for i := range roots {
		validateLine(&roots[i], fmt.Sprintf("lines[%d]", i), &violations)
	}
	if len(violations) > 0 {
		return &RepertoireValidationError{Violations: violations}
	}
	return nil
}

func validateLine(line *OpeningLine, path string, violations *[]string) {
	if strings.TrimSpace(line.Family) == "" {
		*violations = append(*violations, fmt.Sprintf("%s: family must not be empty", path))
	}
	if line.Color != ColorWhite && line.Color != ColorBlack {
		*violations = append(*violations, fmt.Sprintf("%s: color must be white or black, got %q", path, line.Color))
	}
	if len(line.Moves) == 0 {
		*violations = append(*violations, fmt.Sprintf("%s: moves must not be empty", path))
	}
	for i := range line.Children {
		validateLine(&line.Children[i], fmt.Sprintf("%s.children[%d]", path, i), violations)
	}
}

// flatLine is one root-to-leaf path through the repertoire tree.
// Family, color and mainline status come from the leaf node; depth is
// the cumulative ply count along the path.
type flatLine struct {
	family   string
	color    LineColor
	mainline bool
	depth    int
}

func flattenLines(roots []OpeningLine) []flatLine {
	var lines []flatLine
	for i := range roots {
		flattenLine(&roots[i], 0, &lines)
	}
	return lines
}

func flattenLine(node *OpeningLine, parentDepth int, lines *[]flatLine) {
	depth := parentDepth + len(node.Moves)
	if len(node.Children) == 0 {
		*lines = append(*lines, flatLine{
			family:   node.Family,
			color:    node.Color,
			mainline: node.IsMainline,
			depth:    depth,
		})
		return
	}
	for i := range node.Children {
		flattenLine(&node.Children[i], depth, lines)
	}
}

// GapDimension identifies the weakest aspect of a family's coverage.
type GapDimension string

const (
	GapDepth    GapDimension = "depth"
	GapBalance  GapDimension = "balance"
	GapMainline GapDimension = "mainline"
)

// dimensionPriority is the fixed tie-break order for gap detection:
// depth beats balance beats mainline ratio.
var dimensionPriority = []GapDimension{GapDepth, GapBalance, GapMainline}

// AnalyzerConfig holds the repertoire scoring policy. Every band and
// weight is an explicit named field with a documented default so the
// policy is auditable and testable; there are no hidden magic numbers.
type AnalyzerConfig struct {
	// TargetVariations is the variation count at which a family's
	// variety score saturates.
	TargetVariations int `json:"targetVariations"`

	// TargetDepth is the ply depth at which a family's depth score
	// saturates.
	TargetDepth int `json:"targetDepth"`

	// IdealMainlineMin and IdealMainlineMax bound the ideal mainline
	// fraction. A ratio inside the band scores 1.0; outside, the score
	// falls off linearly toward the nearest extreme (0 or 1).
	IdealMainlineMin float64 `json:"idealMainlineMin"`
	IdealMainlineMax float64 `json:"idealMainlineMax"`

	// BalanceFloor is the minority/majority color ratio at which the
	// balance score saturates; below it the score falls off
	// proportionally (0.5 = penalized once one color has less than half
	// the other's lines).
	BalanceFloor float64 `json:"balanceFloor"`

	// Dimension weights for the star score.
	WeightVariations float64 `json:"weightVariations"`
	WeightDepth      float64 `json:"weightDepth"`
	WeightBalance    float64 `json:"weightBalance"`
	WeightMainline   float64 `json:"weightMainline"`

	// StarBands maps the weighted score to stars: score >= StarBands[i]
	// earns at least i+1 stars. Must be ascending.
	StarBands [5]float64 `json:"starBands"`

	// StarThreshold is the rating below which a family receives a gap
	// recommendation.
	StarThreshold int `json:"starThreshold"`
}

// DefaultAnalyzerConfig returns the published scoring policy: eight
// variations and ten plies for full marks, 30-50% mainline fraction,
// balance penalty when one color falls under half the other, equal
// dimension weights, and recommendations for families under 3 stars.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		TargetVariations: 8,
		TargetDepth:      10,
		IdealMainlineMin: 0.3,
		IdealMainlineMax: 0.5,
		BalanceFloor:     0.5,
		WeightVariations: 1,
		WeightDepth:      1,
		WeightBalance:    1,
		WeightMainline:   1,
		StarBands:        [5]float64{0.15, 0.35, 0.55, 0.75, 0.90},
		StarThreshold:    3,
	}
}

// Validate rejects scoring policies that cannot be evaluated. Checked
// eagerly, before any family is analyzed.
func (c AnalyzerConfig) Validate() error {
	if c.TargetVariations <= 0 {
		return fmt.Errorf("analyzer config: targetVariations must be positive, got %d", c.TargetVariations)
	}
	if c.TargetDepth <= 0 {
		return fmt.Errorf("analyzer config: targetDepth must be positive, got %d", c.TargetDepth)
	}
	if c.IdealMainlineMin <= 0 || c.IdealMainlineMax >= 1 || c.IdealMainlineMin >= c.IdealMainlineMax {
		return fmt.Errorf("analyzer config: need 0 < idealMainlineMin < idealMainlineMax < 1, got [%v, %v]",
			c.IdealMainlineMin, c.IdealMainlineMax)
	}
	if c.BalanceFloor <= 0 || c.BalanceFloor > 1 {
		return fmt.Errorf("analyzer config: balanceFloor must be in (0, 1], got %v", c.BalanceFloor)
	}
	if c.WeightVariations < 0 || c.WeightDepth < 0 || c.WeightBalance < 0 || c.WeightMainline < 0 {
		return fmt.Errorf("analyzer config: dimension weights must not be negative")
	}
	if c.WeightVariations+c.WeightDepth+c.WeightBalance+c.WeightMainline == 0 {
		return fmt.Errorf("analyzer config: at least one dimension weight must be positive")
	}
	prev := 0.0
	for i, band := range c.StarBands {
		if band <= prev || band > 1 {
			return fmt.Errorf("analyzer config: starBands must be ascending within (0, 1], band %d is %v", i, band)
		}
		prev = band
	}
	if c.StarThreshold < 0 || c.StarThreshold > 5 {
		return fmt.Errorf("analyzer config: starThreshold must be in [0, 5], got %d", c.StarThreshold)
	}
	return nil
}

// FamilyReport carries the diagnostic metrics for one opening family.
type FamilyReport struct {
	Family string `json:"family"`

	// Variations is the number of distinct root-to-leaf paths.
	Variations int `json:"variations"`

	// Mainlines counts lines marked as mainline; MainlineRatio is
	// Mainlines/Variations, defined as 0 for an empty family.
	Mainlines     int     `json:"mainlines"`
	MainlineRatio float64 `json:"mainlineRatio"`

	// WhiteLines and BlackLines are the color split.
	WhiteLines int `json:"whiteLines"`
	BlackLines int `json:"blackLines"`

	// MaxDepth is the longest cumulative ply sequence among the
	// family's lines.
	MaxDepth int `json:"maxDepth"`

	// Dimension scores in [0, 1], and the 0-5 star summary.
	VarietyScore  float64 `json:"varietyScore"`
	DepthScore    float64 `json:"depthScore"`
	BalanceScore  float64 `json:"balanceScore"`
	MainlineScore float64 `json:"mainlineScore"`
	WeightedScore float64 `json:"weightedScore"`
	Stars         int     `json:"stars"`

	// Gap names the weakest dimension (always computed, so callers can
	// see where a family is thinnest). Recommendation is its textual
	// form, emitted only for families below the star threshold.
	Gap            GapDimension `json:"gap"`
	Recommendation string       `json:"recommendation,omitempty"`
}

// RepertoireReport is the aggregate analysis over all families.
type RepertoireReport struct {
	TotalLines      int     `json:"totalLines"`
	TotalFamilies   int     `json:"totalFamilies"`
	TotalMainlines  int     `json:"totalMainlines"`
	WhiteLines      int     `json:"whiteLines"`
	BlackLines      int     `json:"blackLines"`
	MaxDepth        int     `json:"maxDepth"`
	AverageStars    float64 `json:"averageStars"`
	MainlineRatio   float64 `json:"mainlineRatio"`
	ColorBalance    float64 `json:"colorBalance"`
	DepthAttainment float64 `json:"depthAttainment"`

	// Families is ranked weakest to strongest star rating, so the
	// first entries are where work is most needed.
	Families []FamilyReport `json:"families"`
}

// AnalyzeRepertoire validates a repertoire tree and computes per-family
// and aggregate metrics. It is a pure computation over an immutable
// input snapshot; the tree is never modified.
func AnalyzeRepertoire(roots []OpeningLine, cfg AnalyzerConfig) (*RepertoireReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateRepertoire(roots); err != nil {
		return nil, err
	}

	byFamily := make(map[string][]flatLine)
	for _, line := range flattenLines(roots) {
		byFamily[line.family] = append(byFamily[line.family], line)
	}

	families := make([]string, 0, len(byFamily))
	for family := range byFamily {
		families = append(families, family)
	}
	sort.Strings(families)

	report := &RepertoireReport{}
	for _, family := range families {
		fr := analyzeFamily(family, byFamily[family], cfg)
		report.Families = append(report.Families, fr)

		report.TotalLines += fr.Variations
		report.TotalMainlines += fr.Mainlines
		report.WhiteLines += fr.WhiteLines
		report.BlackLines += fr.BlackLines
		if fr.MaxDepth > report.MaxDepth {
			report.MaxDepth = fr.MaxDepth
		}
	}
	report.TotalFamilies = len(report.Families)

	if report.TotalFamilies > 0 {
		starSum := 0
		for _, fr := range report.Families {
			starSum += fr.Stars
		}
		report.AverageStars = float64(starSum) / float64(report.TotalFamilies)
	}
	if report.TotalLines > 0 {
		report.MainlineRatio = float64(report.TotalMainlines) / float64(report.TotalLines)
	}
	report.ColorBalance = balanceScore(report.WhiteLines, report.BlackLines, cfg.BalanceFloor)
	report.DepthAttainment = clamp01(float64(report.MaxDepth) / float64(cfg.TargetDepth))

	// Weakest families first; ties by raw score, then name.
	sort.SliceStable(report.Families, func(a, b int) bool {
		fa, fb := report.Families[a], report.Families[b]
		if fa.Stars != fb.Stars {
			return fa.Stars < fb.Stars
		}
		if fa.WeightedScore != fb.WeightedScore {
			return fa.WeightedScore < fb.WeightedScore
		}
		return fa.Family < fb.Family
	})

	return report, nil
}

func analyzeFamily(family string, lines []flatLine, cfg AnalyzerConfig) FamilyReport {
	fr := FamilyReport{Family: family, Variations: len(lines)}
	for _, line := range lines {
		if line.mainline {
			fr.Mainlines++
		}
		switch line.color {
		case ColorWhite:
			fr.WhiteLines++
		case ColorBlack:
			fr.BlackLines++
		}
		if line.depth > fr.MaxDepth {
			fr.MaxDepth = line.depth
		}
	}
	if fr.Variations > 0 {
		fr.MainlineRatio = float64(fr.Mainlines) / float64(fr.Variations)
	}

	fr.VarietyScore = clamp01(float64(fr.Variations) / float64(cfg.TargetVariations))
	fr.DepthScore = clamp01(float64(fr.MaxDepth) / float64(cfg.TargetDepth))
	fr.BalanceScore = balanceScore(fr.WhiteLines, fr.BlackLines, cfg.BalanceFloor)
	fr.MainlineScore = mainlineScore(fr.MainlineRatio, cfg)

	totalWeight := cfg.WeightVariations + cfg.WeightDepth + cfg.WeightBalance + cfg.WeightMainline
	fr.WeightedScore = (cfg.WeightVariations*fr.VarietyScore +
		cfg.WeightDepth*fr.DepthScore +
		cfg.WeightBalance*fr.BalanceScore +
		cfg.WeightMainline*fr.MainlineScore) / totalWeight

	fr.Stars = starsFor(fr.WeightedScore, cfg.StarBands)
	fr.Gap = weakestDimension(fr)
	if fr.Stars < cfg.StarThreshold {
		fr.Recommendation = recommendationFor(fr)
	}
	return fr
}

// balanceScore rates the color split against the configured floor: a
// minority/majority ratio at or above floor scores 1.0, below it the
// score falls off proportionally. A family with lines for only one
// color scores 0.
func balanceScore(white, black int, floor float64) float64 {
	if white == 0 && black == 0 {
		return 0
	}
	minority, majority := white, black
	if minority > majority {
		minority, majority = majority, minority
	}
	ratio := float64(minority) / float64(majority)
	if ratio >= floor {
		return 1
	}
	return ratio / floor
}

// mainlineScore is 1 inside the ideal band and falls off linearly
// outside it, hitting 0 at a ratio of 0 or 1. The falloff scale comes
// from the band bounds themselves rather than a separate constant.
func mainlineScore(ratio float64, cfg AnalyzerConfig) float64 {
	switch {
	case ratio < cfg.IdealMainlineMin:
		return clamp01(1 - (cfg.IdealMainlineMin-ratio)/cfg.IdealMainlineMin)
	case ratio > cfg.IdealMainlineMax:
		return clamp01(1 - (ratio-cfg.IdealMainlineMax)/(1-cfg.IdealMainlineMax))
	default:
		return 1
	}
}

func starsFor(score float64, bands [5]float64) int {
	stars := 0
	for _, band := range bands {
		if score >= band {
			stars++
		}
	}
	return stars
}

// weakestDimension reports the lowest-scoring gap dimension. Ties break
// by the fixed priority order depth > balance > mainline, so the result
// is deterministic for identical inputs.
func weakestDimension(fr FamilyReport) GapDimension {
	scores := map[GapDimension]float64{
		GapDepth:    fr.DepthScore,
		GapBalance:  fr.BalanceScore,
		GapMainline: fr.MainlineScore,
	}
	weakest := dimensionPriority[0]
	for _, dim := range dimensionPriority[1:] {
		if scores[dim] < scores[weakest] {
			weakest = dim
		}
	}
	return weakest
}

func recommendationFor(fr FamilyReport) string {
	switch fr.Gap {
	case GapDepth:
		return fmt.Sprintf("%s: extend lines beyond %d plies; current coverage is too shallow", fr.Family, fr.MaxDepth)
	case GapBalance:
		return fmt.Sprintf("%s: rebalance colors (%d white / %d black lines)", fr.Family, fr.WhiteLines, fr.BlackLines)
	default:
		return fmt.Sprintf("%s: adjust mainline share (%.0f%% of lines are mainline)", fr.Family, fr.MainlineRatio*100)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
