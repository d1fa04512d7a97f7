package dto

type ProductoResponse struct {
	ID            string   `json:"id"`
	Nombre        string   `json:"nombre"`
	NivelesSecado []string `json:"niveles_secado"`
	Calidades     []string `json:"calidades"`
	PermiteSacos  bool     `json:"permite_sacos"`
}
