//go:build !linux && !darwin && !windows

package notify

var (
	platformCommand Builder
	platformSound   SoundBuilder
)
