package notify

var (
	platformCommand Builder      = WindowsCommand
	platformSound   SoundBuilder = WindowsSound
)
