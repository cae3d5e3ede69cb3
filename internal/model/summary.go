package model

// AnalysisSummary is the fixed-schema scouting report derived from the
// annotation payload by the language model. Numeric fields are
// percentage-formatted strings; values are model estimates, not
// measured statistics.
type AnalysisSummary struct {
	ShotZones     ShotZones     `json:"shotZones"`
	PlayStyle     PlayStyle     `json:"playStyle"`
	Defense       Defense       `json:"defense"`
	RimTendencies RimTendencies `json:"rimTendencies"`
	HotSpots      []string      `json:"hotSpots"`
	HandDominance HandDominance `json:"handDominance"`
}

// ShotZones breaks down shot attempts by court zone
type ShotZones struct {
	Rim        string `json:"rim"`
	ShortMid   string `json:"shortMid"`
	LongMid    string `json:"longMid"`
	Corners    string `json:"corners"`
	AboveBreak string `json:"aboveBreak"`
}

// PlayStyle captures decision tendencies with the ball
type PlayStyle struct {
	PassVsShoot   string `json:"passVsShoot"`
	DriveVsPullUp string `json:"driveVsPullUp"`
}

// Defense captures on-ball defensive tendencies. AvgDefDistance is a
// distance string (e.g. "3.5 ft"), not a percentage.
type Defense struct {
	AvgDefDistance   string `json:"avgDefDistance"`
	BlowByRate       string `json:"blowByRate"`
	HelpGapFrequency string `json:"helpGapFrequency"`
}

// RimTendencies captures finishing behavior at the rim
type RimTendencies struct {
	FinishRate        string `json:"finishRate"`
	KickOutRate       string `json:"kickOutRate"`
	VsTallerDefenders string `json:"vsTallerDefenders"`
	FoulDrawRate      string `json:"foulDrawRate"`
}

// HandDominance splits finishing between hands
type HandDominance struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}
