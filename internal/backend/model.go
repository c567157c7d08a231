package backend

// Field and JSON names follow the backend's contract.

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserProfile is the authenticated identity. IDRol 1 is administrator,
// anything else is a regular user.
type UserProfile struct {
	ID     string `json:"id"`
	Correo string `json:"correo"`
	Nombre string `json:"nombre"`
	IDRol  int    `json:"idRol"`
}

const RoleAdmin = 1

type Report struct {
	ID            int     `json:"id"`
	IDUsuario     int     `json:"idUsuario"`
	Titulo        string  `json:"titulo"`
	Descripcion   string  `json:"descripcion"`
	URLPagina     string  `json:"urlPagina"`
	FechaCreacion string  `json:"fechaCreacion"`
	Estado        string  `json:"estado"`
	IDAdmin       *int    `json:"idAdmin"`
	FechaRevision *string `json:"fechaRevision"`
	IDCategoria   *int    `json:"idCategoria"`
}

// Report states understood by the backend.
const (
	StatusPending  = "Pendiente"
	StatusApproved = "Aprobado"
	StatusRejected = "Rechazado"
)

type Category struct {
	ID          int     `json:"id"`
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion"`
	Activa      int     `json:"activa"`
}

type User struct {
	ID     int    `json:"id"`
	Correo string `json:"correo"`
	Nombre string `json:"nombre"`
	IDRol  int    `json:"idRol"`
	Activo int    `json:"activo"`
}

type ReportsByCategory struct {
	CategoryName string `json:"categoryName"`
	ReportCount  int    `json:"reportCount"`
}

type StatusPercentage struct {
	Status     string  `json:"status"`
	Percentage float64 `json:"percentage"`
	Count      int     `json:"count"`
}

type HistoricalReportData struct {
	Date         string `json:"date"`
	CategoryName string `json:"categoryName"`
	ReportCount  int    `json:"reportCount"`
}
