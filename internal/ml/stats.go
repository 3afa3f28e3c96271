package ml

import "math"

// meanStdDev returns the arithmetic mean and population standard deviation
func meanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	stdDev = math.Sqrt(variance)

	return mean, stdDev
}

// olsSlope fits y against x = 0..n-1. The small epsilon keeps a single point from dividing by zero.
func olsSlope(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}

	sumX, sumY, sumXY, sumX2 := 0.0, 0.0, 0.0, 0.0
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	return (n*sumXY - sumX*sumY) / (n*sumX2 - sumX*sumX + 1e-4)
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// clampScore bounds any score to the WQI range. NaN maps to 0.
func clampScore(value float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	return clamp(value, 0, 100)
}

func roundTo2Decimals(value float64) float64 {
	return math.Round(value*100) / 100
}
