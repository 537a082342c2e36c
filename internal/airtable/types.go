package airtable

import "strings"

const defaultBaseURL = "https://api.airtable.com/v0"

// record mirrors one Airtable row of the client-data table. Field names carry
// the table's quirks verbatim, including the trailing tab in the
// first-contact column.
type record struct {
	ID          string `json:"id"`
	CreatedTime string `json:"createdTime"`
	Fields      struct {
		Nombre             string `json:"Nombre"`
		Telefono           string `json:"Teléfono"`
		ServicioConsultado string `json:"Servicio_Consultado"`
		EnlaceCitaEnviado  bool   `json:"Enlace_Cita_Enviado"`
		FechaPrimerContact string `json:"Fecha primer contacto\t"`
		UltimaActualizacion string `json:"Última actualización"`
	} `json:"fields"`
}

// ClientRecord is the mapped client row used by the dashboard.
type ClientRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	Services     []string `json:"services"`
	FirstContact string   `json:"firstContact,omitempty"`
	LastUpdate   string   `json:"lastUpdate,omitempty"`
	LinkSent     bool     `json:"linkSent"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset"`
}

// RecordFields is the writable column set used when syncing conversations
// into the table.
type RecordFields struct {
	Nombre             string `json:"Nombre"`
	Telefono           string `json:"Teléfono"`
	ServicioConsultado string `json:"Servicio_Consultado"`
	EnlaceCitaEnviado  bool   `json:"Enlace_Cita_Enviado"`
}

type upsertRequest struct {
	Fields RecordFields `json:"fields"`
}

func (r record) toClientRecord() ClientRecord {
	name := r.Fields.Nombre
	if name == "" {
		name = "Desconocido"
	}
	var services []string
	for _, s := range strings.Split(r.Fields.ServicioConsultado, ",") {
		if s = strings.TrimSpace(s); s != "" {
			services = append(services, s)
		}
	}
	return ClientRecord{
		ID:           r.ID,
		Name:         name,
		Phone:        r.Fields.Telefono,
		Services:     services,
		FirstContact: r.Fields.FechaPrimerContact,
		LastUpdate:   r.Fields.UltimaActualizacion,
		LinkSent:     r.Fields.EnlaceCitaEnviado,
	}
}
