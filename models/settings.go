package models

import (
	"fmt"
	"strings"
)

type Granularity uint8

const (
	Daily Granularity = iota
	Weekly
	Monthly
)

func (g Granularity) String() string {
	switch g {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return ""
	}
}

// PeriodsPerYear is the number of trading epochs in a year at this granularity
func (g Granularity) PeriodsPerYear() int {
	switch g {
	case Weekly:
		return 52
	case Monthly:
		return 12
	default:
		return 252
	}
}

func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	default:
		return Daily, fmt.Errorf("%s is not a recognized granularity", s)
	}
}

type Strategy uint8

const (
	FollowTheLoser Strategy = iota // PAMR
	FollowTheLeader                // BCRP
)

func (s Strategy) String() string {
	switch s {
	case FollowTheLoser:
		return "pamr"
	case FollowTheLeader:
		return "ftl"
	default:
		return ""
	}
}

// DisplayName is used for log banners and chart titles
func (s Strategy) DisplayName() string {
	switch s {
	case FollowTheLoser:
		return "Follow The Loser (PAMR)"
	case FollowTheLeader:
		return "Follow The Leader (BCRP)"
	default:
		return ""
	}
}

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pamr", "ftloser", "loser":
		return FollowTheLoser, nil
	case "ftl", "bcrp", "leader":
		return FollowTheLeader, nil
	default:
		return FollowTheLoser, fmt.Errorf("%s is not a recognized strategy", s)
	}
}
