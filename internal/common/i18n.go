package common

import "strings"

// HeaderAcceptLanguage is the request header consulted when no saved language exists.
const HeaderAcceptLanguage = "Accept-Language"

// Error codes carried in ErrorResponse.Error.Code.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeClient       = "CLIENT_ERROR"
	CodeServer       = "SERVER_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeUpstream     = "UPSTREAM_ERROR"

	CodeCouponRedeemed   = "COUPON_REDEEMED"
	CodeCouponExpired    = "COUPON_EXPIRED"
	CodeCampaignLocked   = "CAMPAIGN_NOT_EDITABLE"
	CodeInvalidSignature = "INVALID_SIGNATURE"
	CodeInvalidState     = "INVALID_OAUTH_STATE"
	CodeInvalidLogin     = "INVALID_CREDENTIALS"
	CodeInsufficientQty  = "INSUFFICIENT_QUANTITY"
)

var messages = map[string]map[string]string{
	"en": {
		CodeValidation:       "Validation failed",
		CodeClient:           "The request could not be processed",
		CodeServer:           "Something went wrong on our side, please try again",
		CodeNotFound:         "not found",
		CodeUnauthorized:     "Unauthorized access",
		CodeForbidden:        "You do not have permission to do that",
		CodeConflict:         "The resource already exists or was changed",
		CodeRateLimited:      "Too many requests, slow down",
		CodeUpstream:         "An external service did not respond correctly",
		CodeCouponRedeemed:   "This coupon has already been redeemed",
		CodeCouponExpired:    "This coupon has expired",
		CodeCampaignLocked:   "Only draft or scheduled campaigns can be changed",
		CodeInvalidSignature: "Invalid webhook signature",
		CodeInvalidState:     "The connection link has expired, please try again",
		CodeInvalidLogin:     "Invalid email or password",
		CodeInsufficientQty:  "Stock cannot go below zero",
	},
	"es": {
		CodeValidation:       "La validación falló",
		CodeClient:           "No se pudo procesar la solicitud",
		CodeServer:           "Algo salió mal de nuestro lado, inténtalo de nuevo",
		CodeNotFound:         "no encontrado",
		CodeUnauthorized:     "Acceso no autorizado",
		CodeForbidden:        "No tienes permiso para hacer eso",
		CodeConflict:         "El recurso ya existe o fue modificado",
		CodeRateLimited:      "Demasiadas solicitudes, espera un momento",
		CodeUpstream:         "Un servicio externo no respondió correctamente",
		CodeCouponRedeemed:   "Este cupón ya fue canjeado",
		CodeCouponExpired:    "Este cupón ha expirado",
		CodeCampaignLocked:   "Solo se pueden modificar campañas en borrador o programadas",
		CodeInvalidSignature: "Firma de webhook inválida",
		CodeInvalidState:     "El enlace de conexión expiró, inténtalo de nuevo",
		CodeInvalidLogin:     "Correo o contraseña inválidos",
		CodeInsufficientQty:  "El inventario no puede quedar por debajo de cero",
	},
}

// SupportedLanguage reports whether messages exist for lang.
func SupportedLanguage(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// Translate returns the message for code in lang, falling back to English and then to the code itself.
func Translate(lang, code string) string {
	if m, ok := messages[lang][code]; ok {
		return m
	}
	if m, ok := messages["en"][code]; ok {
		return m
	}
	return code
}

// ParseAcceptLanguage picks the first supported language tag from an Accept-Language header.
func ParseAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if SupportedLanguage(base) {
			return base
		}
	}
	return ""
}
