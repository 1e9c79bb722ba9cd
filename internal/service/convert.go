package service

import "fmt"

// Display-only conversion rates. Settlement math never touches these.
const (
	starsToUZSRate = 1000
	starsToUSDRate = 0.01
)

// StarsToUZS converts Stars to Uzbek so'm for display
func StarsToUZS(stars int64) int64 {
	return stars * starsToUZSRate
}

// StarsToUSD converts Stars to US dollars for display
func StarsToUSD(stars int64) float64 {
	return float64(stars) * starsToUSDRate
}

// FormatStars renders a Stars amount compactly (1.5K, 2.0M)
func FormatStars(amount int64) string {
	if amount >= 1000000 {
		return fmt.Sprintf("%.1fM", float64(amount)/1000000)
	}
	if amount >= 1000 {
		return fmt.Sprintf("%.1fK", float64(amount)/1000)
	}
	return fmt.Sprintf("%d", amount)
}
