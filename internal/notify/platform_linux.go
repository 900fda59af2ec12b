package notify

var (
	platformCommand Builder      = LinuxCommand
	platformSound   SoundBuilder = LinuxSound
)
