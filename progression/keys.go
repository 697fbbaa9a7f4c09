package progression

// Storage keys of the progression categories. They match the keys the
// mobile app has always written, so existing device data keeps loading.
const (
	KeyPieces         = "nql:artifactPieces:v1"
	KeySolved         = "nql:artifactSolved:v1"
	KeyFavorites      = "nql:articleFavs"
	KeyCorrectAnswers = "nql:articleAnswersCorrect:v1"
	KeySettings       = "nql:settings:v1"
	KeyOnboarding     = "nql:onboarding:v1"
	KeyHintSeen       = "nql:puzzleHintSeen:v1"

	// keyLegacyOnboarding was written by early builds before the
	// versioned key existed. Only ever removed.
	keyLegacyOnboarding = "nql:seenOnboarding"
)

// flagSet is the literal stored for boolean flags.
const flagSet = "1"

// Keys lists every key owned by the progression repository.
func Keys() []string {
	return []string{
		KeyPieces,
		KeySolved,
		KeyFavorites,
		KeyCorrectAnswers,
		KeySettings,
		KeyOnboarding,
		KeyHintSeen,
		keyLegacyOnboarding,
	}
}
