package notify

var (
	platformCommand Builder      = DarwinCommand
	platformSound   SoundBuilder = DarwinSound
)
