package ml

import (
	"fmt"
	"math"

	"github.com/Capstone-E1/aquawatch_backend/internal/models"
)

// ParameterKind identifies one of the in-situ parameters that contribute to the WQI
type ParameterKind int

const (
	ParamPh ParameterKind = iota
	ParamTemperature
	ParamTurbidity
	ParamDissolvedOxygen
	ParamConductivity
)

// Parameters lists every kind in scoring order
var Parameters = []ParameterKind{ParamPh, ParamTemperature, ParamTurbidity, ParamDissolvedOxygen, ParamConductivity}

// absentScore is given to a parameter the station did not report
const absentScore = 50.0

func (k ParameterKind) String() string {
	switch k {
	case ParamPh:
		return "ph"
	case ParamTemperature:
		return "temperature"
	case ParamTurbidity:
		return "turbidity"
	case ParamDissolvedOxygen:
		return "dissolvedOxygen"
	case ParamConductivity:
		return "conductivity"
	default:
		return "unknown"
	}
}

// Weight is the contribution of the parameter to the composite score
func (k ParameterKind) Weight() float64 {
	switch k {
	case ParamPh:
		return 0.20
	case ParamTemperature:
		return 0.15
	case ParamTurbidity:
		return 0.20
	case ParamDissolvedOxygen:
		return 0.25
	case ParamConductivity:
		return 0.10
	default:
		return 0
	}
}

// ScoreParameter maps a raw value to a 0-100 sub-score plus any issues it raises.
// A nil or NaN value scores 50 with no issue.
func ScoreParameter(kind ParameterKind, value *float64) (float64, []string) {
	if value == nil || math.IsNaN(*value) {
		return absentScore, nil
	}

	var score float64
	var issue string

	switch kind {
	case ParamPh:
		score, issue = scorePh(*value)
	case ParamTemperature:
		score, issue = scoreTemperature(*value)
	case ParamTurbidity:
		score, issue = scoreTurbidity(*value)
	case ParamDissolvedOxygen:
		score, issue = scoreDissolvedOxygen(*value)
	case ParamConductivity:
		score, issue = scoreConductivity(*value)
	default:
		return absentScore, nil
	}

	if issue == "" {
		return clampScore(score), nil
	}
	return clampScore(score), []string{issue}
}

func scorePh(ph float64) (float64, string) {
	switch {
	case ph >= 6.5 && ph <= 8.5:
		return 100, ""
	case ph >= 6.0 && ph < 6.5:
		return 60 + 40*(ph-6.0)/0.5, fmt.Sprintf("pH slightly acidic (%.2f)", ph)
	case ph > 8.5 && ph <= 9.0:
		return 60 + 40*(9.0-ph)/0.5, fmt.Sprintf("pH slightly basic (%.2f)", ph)
	case ph < 6.0:
		return math.Max(0, 30-(6.0-ph)*20), fmt.Sprintf("pH too acidic (%.2f), risk to aquatic life", ph)
	default:
		return math.Max(0, 30-(ph-9.0)*20), fmt.Sprintf("pH too basic (%.2f), risk to aquatic life", ph)
	}
}

func scoreTemperature(temp float64) (float64, string) {
	switch {
	case temp >= 15 && temp <= 25:
		return 100, ""
	case temp >= 10 && temp < 15:
		return 70 + 30*(temp-10)/5, fmt.Sprintf("Cool temperature (%.1f°C)", temp)
	case temp > 25 && temp <= 30:
		return 70 + 30*(30-temp)/5, fmt.Sprintf("Elevated temperature (%.1f°C)", temp)
	case temp < 10:
		return 40, fmt.Sprintf("Temperature too low (%.1f°C)", temp)
	default:
		return 20, fmt.Sprintf("Critical temperature (%.1f°C), thermal stress", temp)
	}
}

func scoreTurbidity(turb float64) (float64, string) {
	switch {
	case turb <= 1:
		return 100, ""
	case turb <= 5:
		score := 60 + 40*(5-turb)/4
		if turb > 3 {
			return score, fmt.Sprintf("Moderate turbidity (%.1f NTU)", turb)
		}
		return score, ""
	case turb <= 10:
		return 30 + 30*(10-turb)/5, fmt.Sprintf("High turbidity (%.1f NTU), above WHO limit", turb)
	default:
		return math.Max(0, 30-(turb-10)*3), fmt.Sprintf("Critical turbidity (%.1f NTU), not potable", turb)
	}
}

func scoreDissolvedOxygen(do float64) (float64, string) {
	switch {
	case do >= 8:
		return 100, ""
	case do >= 6:
		return 60 + 40*(do-6)/2, fmt.Sprintf("Moderate dissolved oxygen (%.1f mg/L)", do)
	case do >= 4:
		return 30 + 30*(do-4)/2, fmt.Sprintf("Low dissolved oxygen (%.1f mg/L), fish stress", do)
	default:
		return math.Max(0, do*7.5), fmt.Sprintf("Critical dissolved oxygen (%.1f mg/L), possible dead zone", do)
	}
}

func scoreConductivity(cond float64) (float64, string) {
	switch {
	case cond >= 200 && cond <= 500:
		return 100, ""
	case cond < 200:
		score := 70 + 30*cond/200
		if cond < 100 {
			return score, fmt.Sprintf("Low conductivity (%.0f µS/cm), weakly mineralized", cond)
		}
		return score, ""
	case cond <= 800:
		return 50 + 50*(800-cond)/300, fmt.Sprintf("Elevated conductivity (%.0f µS/cm)", cond)
	default:
		return math.Max(0, 50-(cond-800)/20), fmt.Sprintf("Very high conductivity (%.0f µS/cm), highly mineralized", cond)
	}
}

// valueOf picks the measurement field that corresponds to kind
func valueOf(m models.Measurement, kind ParameterKind) *float64 {
	switch kind {
	case ParamPh:
		return m.Ph
	case ParamTemperature:
		return m.Temperature
	case ParamTurbidity:
		return m.Turbidity
	case ParamDissolvedOxygen:
		return m.DissolvedOxygen
	case ParamConductivity:
		return m.Conductivity
	default:
		return nil
	}
}

// ScoreMeasurement scores all five parameters in fixed order.
func ScoreMeasurement(m models.Measurement) models.ParameterScoreSet {
	set := models.ParameterScoreSet{
		Scores: make(map[string]float64, len(Parameters)),
		Issues: []string{},
	}
	for _, kind := range Parameters {
		score, issues := ScoreParameter(kind, valueOf(m, kind))
		set.Scores[kind.String()] = score
		set.Issues = append(set.Issues, issues...)
	}
	return set
}
