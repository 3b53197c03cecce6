// Package jitter добавляет случайность к интервалам повторных попыток, чтобы
// переподключения нескольких процессов не совпадали по времени.
package jitter

import (
	"math/rand/v2"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

// Duration возвращает d с джиттером в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	return DurationWithRand(d, jitterFactor, rand.Float64)
}

// DurationWithRand — то же, что Duration, но с заданным источником случайных чисел в [0, 1).
func DurationWithRand(d time.Duration, jitterFactor float64, float64n func() float64) time.Duration {
	if d <= 0 || jitterFactor <= 0 {
		return d
	}

	return d + time.Duration(float64n()*jitterFactor*float64(d))
}

// ExponentialBackoff удваивает base на каждую попытку (attempt с нуля), не превышая max,
// и добавляет джиттер.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	return Duration(backoff(base, max, attempt), jitterFactor)
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max || d <= 0 {
			return max
		}
	}

	return min(d, max)
}
