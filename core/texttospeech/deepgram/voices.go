package deepgram

type deepgramVoice string

const (
	VoiceAsteria deepgramVoice = "aura-2-asteria-en"
	VoiceThalia  deepgramVoice = "aura-2-thalia-en"
	VoiceOrion   deepgramVoice = "aura-2-orion-en"
	VoiceLuna    deepgramVoice = "aura-2-luna-en"
	VoiceArcas   deepgramVoice = "aura-2-arcas-en"
)

const defaultVoice = VoiceThalia

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{
		VoiceAsteria,
		VoiceThalia,
		VoiceOrion,
		VoiceLuna,
		VoiceArcas,
	}
}
