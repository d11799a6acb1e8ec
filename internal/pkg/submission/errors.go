package submission

// ValidationError is a user-facing rejection. Code is the snake_case error
// key returned by the API and Message the text shown next to the form.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

var (
	ErrUnknownPlatform    = &ValidationError{Code: "unknown_platform", Message: "Plataforma não encontrada."}
	ErrUnknownTool        = &ValidationError{Code: "unknown_tool", Message: "Ferramenta não encontrada para esta plataforma."}
	ErrUnknownProfile     = &ValidationError{Code: "unknown_profile", Message: "Um dos perfis selecionados não existe."}
	ErrNoProfiles         = &ValidationError{Code: "no_profiles", Message: "Selecione pelo menos um perfil."}
	ErrInvalidURL         = &ValidationError{Code: "invalid_url", Message: "Informe uma URL válida (http ou https)."}
	ErrInvalidResultCount = &ValidationError{Code: "invalid_result_count", Message: "A quantidade de resultados deve ser um número inteiro entre 1 e 1000."}
	ErrCostOutOfRange     = &ValidationError{Code: "cost_out_of_range", Message: "O custo desta consulta excede o limite permitido."}
	ErrEmptyUsername      = &ValidationError{Code: "empty_username", Message: "Informe o nome de usuário do perfil."}
)
