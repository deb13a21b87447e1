package errors

import "strings"

// Supported locales for user-facing messages.
const (
	LocalePTBR = "pt-BR"
	LocaleEN   = "en"
)

// DefaultLocale is used when a requested locale has no catalog.
const DefaultLocale = LocalePTBR

var catalogs = map[string]map[ErrorCode]string{
	LocalePTBR: {
		ErrCodeProviderQuota:      "O áudio é muito longo. Por favor, envie um áudio mais curto.",
		ErrCodeRecognitionTimeout: "A transcrição demorou demais. Por favor, tente novamente.",
		ErrCodeEmptyTranscript:    "Não foi possível reconhecer fala no áudio.",
		ErrCodeConversionFailed:   "Erro ao processar o arquivo de áudio. Tente novamente.",
		ErrCodeResourceError:      "Erro ao processar o arquivo de áudio. Tente novamente.",
		ErrCodeStagingFailed:      "Ocorreu um erro ao transcrever o áudio. Por favor, tente novamente.",
		ErrCodeRecognitionFailed:  "Ocorreu um erro ao transcrever o áudio. Por favor, tente novamente.",
		ErrCodeInternal:           "Ocorreu um erro ao transcrever o áudio. Por favor, tente novamente.",
		ErrCodeInvalidInput:       "Envie um arquivo de áudio válido.",
		ErrCodePayloadTooLarge:    "O arquivo enviado é grande demais.",
		ErrCodeUnauthorized:       "Autenticação necessária.",
		ErrCodeInvalidToken:       "Token de autenticação inválido.",
		ErrCodeTokenExpired:       "Sua sessão expirou. Faça login novamente.",
		ErrCodeRateLimited:        "Muitas requisições. Aguarde um momento e tente novamente.",
		ErrCodeServiceUnavailable: "Serviço temporariamente indisponível. Tente novamente.",
	},
	LocaleEN: {
		ErrCodeProviderQuota:      "The audio is too long. Please send a shorter recording.",
		ErrCodeRecognitionTimeout: "Transcription took too long. Please try again.",
		ErrCodeEmptyTranscript:    "No speech could be recognized in the audio.",
		ErrCodeConversionFailed:   "The audio file could not be processed. Please try again.",
		ErrCodeResourceError:      "The audio file could not be processed. Please try again.",
		ErrCodeStagingFailed:      "Something went wrong while transcribing the audio. Please try again.",
		ErrCodeRecognitionFailed:  "Something went wrong while transcribing the audio. Please try again.",
		ErrCodeInternal:           "Something went wrong while transcribing the audio. Please try again.",
		ErrCodeInvalidInput:       "Please send a valid audio file.",
		ErrCodePayloadTooLarge:    "The uploaded file is too large.",
		ErrCodeUnauthorized:       "Authentication required.",
		ErrCodeInvalidToken:       "Invalid authentication token.",
		ErrCodeTokenExpired:       "Your session has expired. Please log in again.",
		ErrCodeRateLimited:        "Too many requests. Please wait a moment and try again.",
		ErrCodeServiceUnavailable: "The service is temporarily unavailable. Please try again.",
	},
}

// UserMessage maps err to the text shown to an end user. It is meant to be
// called once, at the boundary that talks to the user. Unknown codes and
// foreign errors fall back to the generic INTERNAL_ERROR text.
func UserMessage(err error, locale string) string {
	catalog := catalogFor(locale)
	if msg, ok := catalog[CodeOf(err)]; ok {
		return msg
	}
	return catalog[ErrCodeInternal]
}

// catalogFor matches the exact locale first, then the language prefix.
func catalogFor(locale string) map[ErrorCode]string {
	if c, ok := catalogs[locale]; ok {
		return c
	}
	lang, _, _ := strings.Cut(locale, "-")
	for key, c := range catalogs {
		if prefix, _, _ := strings.Cut(key, "-"); strings.EqualFold(prefix, lang) {
			return c
		}
	}
	return catalogs[DefaultLocale]
}
