/*
handlers.go - HTTP API handlers for the wage liquidation engine

PURPOSE:
  Exposes the liquidation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Liquidation:
    POST /api/liquidacion/mensual  Monthly receipt (JSON body)
    GET  /api/liquidacion/mensual  Monthly receipt (query string)
    POST /api/liquidacion/final    Final settlement (JSON body)
    GET  /api/liquidacion/final    Final settlement (query string)

  Schedule:
    GET  /api/meta                 Dropdown tree (ramas/meses/categorias)
    GET  /api/escala               One schedule row

  Ops:
    GET  /health                   Liveness probe

QUERY-STRING COMPATIBILITY:
  The GET variants accept the historical parameter names of the receipt
  form (hex50, aCuentaNR, funAdic1...), including their aliases. New
  clients should POST the JSON body instead.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Schedule row not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mercantil/wage-engine/liquidation"
	"github.com/mercantil/wage-engine/money"
	"github.com/mercantil/wage-engine/schedule"
)

// Handler holds the API dependencies: the liquidation engine and the
// schedule repository it reads from.
type Handler struct {
	Engine *liquidation.Engine
	Repo   schedule.Repository
}

func NewHandler(engine *liquidation.Engine, repo schedule.Repository) *Handler {
	return &Handler{Engine: engine, Repo: repo}
}

// =============================================================================
// LIQUIDATION ENDPOINTS
// =============================================================================

func (h *Handler) ComputeMonthly(w http.ResponseWriter, r *http.Request) {
	var req MonthlyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.runMonthly(w, req.toInput())
}

func (h *Handler) ComputeMonthlyQuery(w http.ResponseWriter, r *http.Request) {
	h.runMonthly(w, monthlyFromQuery(r.URL.Query()))
}

func (h *Handler) runMonthly(w http.ResponseWriter, in liquidation.MonthlyInput) {
	receipt, err := h.Engine.ComputeMonthly(in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptResponse(receipt))
}

func (h *Handler) ComputeFinal(w http.ResponseWriter, r *http.Request) {
	var req FinalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.runFinal(w, in)
}

func (h *Handler) ComputeFinalQuery(w http.ResponseWriter, r *http.Request) {
	in, err := finalFromQuery(r.URL.Query())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.runFinal(w, in)
}

func (h *Handler) runFinal(w http.ResponseWriter, in liquidation.FinalInput) {
	settlement, err := h.Engine.ComputeFinal(in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettlementResponse{
		ReceiptResponse: toReceiptResponse(&settlement.Receipt),
		MejorSalario:    settlement.BestSalary.InexactFloat64(),
		AniosArt245:     settlement.Art245Years,
	})
}

// =============================================================================
// SCHEDULE ENDPOINTS
// =============================================================================

func (h *Handler) GetMeta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MetaResponse{OK: true, Meta: h.Repo.Meta()})
}

func (h *Handler) GetScale(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	branch := schedule.NormBranch(qStr(q, "rama"))
	grouping := schedule.NormGrouping(qStr(q, "agrupamiento", "agrup"))
	category := schedule.NormName(qStr(q, "categoria"))
	month := schedule.MonthKey(qStr(q, "mes"))

	rec, ok := h.Repo.Lookup(branch, grouping, category, month)
	if !ok {
		rec, ok = h.Repo.Lookup(branch, schedule.Ungrouped, category, month)
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Schedule row not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, ScaleResponse{
		OK:           true,
		Rama:         rec.Branch,
		Agrupamiento: rec.Grouping,
		Categoria:    rec.Category,
		Mes:          rec.Month,
		Basico:       rec.Basico.InexactFloat64(),
		NoRem:        rec.NoRem.InexactFloat64(),
		SumaFija:     rec.SumaFija.InexactFloat64(),
	})
}

// =============================================================================
// OPS ENDPOINTS
// =============================================================================

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// QUERY-STRING PARSING
// =============================================================================

// funAdicSlots maps the receipt form's positional funAdicN checkboxes
// to add-on ids, in the order the printed table lists them.
var funAdicSlots = []string{"CADAVER", "RESTO", "CHOFER", "INDUMENT"}

func monthlyFromQuery(q url.Values) liquidation.MonthlyInput {
	in := liquidation.NewMonthlyInput(
		qStr(q, "rama"),
		qStr(q, "agrupamiento", "agrup"),
		qStr(q, "categoria"),
		qStr(q, "mes"),
	)

	if v := qFloat(q, "jornada", "hs"); v > 0 {
		in.HoursPerWeek = v
	}
	in.SeniorityYears = qInt(q, "antiguedad", "anios_antig", "anios")
	in.ZonePercent = qFloat(q, "zona_pct", "zona")

	in.Presenteeism = qBool(q, true, "presentismo")
	in.AbsenceDays = qFloat(q, "ausencias", "aus")
	in.SuspensionDays = qFloat(q, "suspension", "licSG", "lic_sg")

	in.Overtime50 = qFloat(q, "hex50")
	in.Overtime100 = qFloat(q, "hex100")
	in.NightHours = qFloat(q, "nocturnas", "noct")

	in.HolidaysWorked = qInt(q, "feriados_trabajados", "ferTrab")
	in.HolidaysNotWorked = qInt(q, "feriados_no_trabajados", "ferNoTrab")
	in.VacationDays = qFloat(q, "vacaciones", "vacGoz", "vac_goz")

	in.CashOnAccount = qAmount(q, "a_cuenta", "aCuentaNR")
	in.TravelAllowance = qAmount(q, "viaticos", "viaticosNR")

	in.DisplayWindow = qBool(q, false, "armado_vidriera", "armadoAuto")
	in.CashHandling = qBool(q, false, "manejo_caja", "manejoCaja")
	in.CashierGrade = qStr(q, "cajero_tipo", "cajeroTipo")

	in.KmVehicle = qStr(q, "km_vehiculo", "kmTipo")
	in.KmUnder100 = qInt(q, "km_menos_100", "kmMenos100")
	in.KmOver100 = qInt(q, "km_mas_100", "kmMas100")

	in.ConnectionTier = qStr(q, "conexiones_tier", "conex")
	in.ConnectionCount = qInt(q, "conexiones", "aguaConex")
	in.TitleLevel = qStr(q, "titulo_nivel", "tituloNivel")
	in.TitlePercent = qFloat(q, "titulo_pct", "tituloPct")

	for i, id := range funAdicSlots {
		if qBool(q, false, "funAdic"+strconv.Itoa(i+1)) {
			in.FuneralAddOns = append(in.FuneralAddOns, id)
		}
	}
	for _, id := range strings.Split(qStr(q, "adicionales_funebres"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			in.FuneralAddOns = append(in.FuneralAddOns, id)
		}
	}

	in.ProportionalSAC = qBool(q, false, "sac_proporcional", "sacProp")

	in.PensionRetiree = qBool(q, false, "jubilado")
	in.HealthEnrolled = qBool(q, true, "osecac")
	in.UnionAffiliated = qBool(q, false, "afiliado")
	in.UnionPercent = qFloat(q, "sindicato_pct", "sind_pct")
	in.UnionFixed = qAmount(q, "sindicato_fijo", "sind_fijo")
	in.CashShortage = qAmount(q, "faltante_caja", "faltante")
	in.SalaryAdvance = qAmount(q, "adelanto", "adelantoSueldo")
	in.Garnishment = qAmount(q, "embargo")

	return in
}

func finalFromQuery(q url.Values) (liquidation.FinalInput, error) {
	req := FinalRequest{
		Tipo:    qStr(q, "tipo", "causal"),
		Ingreso: qStr(q, "ingreso", "alta"),
		Egreso:  qStr(q, "egreso", "baja"),

		MejorSalario: Amount{qAmount(q, "mejor_salario", "mrmnh")},

		Rama:         qStr(q, "rama"),
		Agrupamiento: qStr(q, "agrupamiento", "agrup"),
		Categoria:    qStr(q, "categoria"),
		Jornada:      qFloat(q, "jornada", "hs"),
		Antiguedad:   qInt(q, "antiguedad", "anios"),

		PreavisoDias:    qInt(q, "preaviso_dias", "preaviso"),
		SACPreaviso:     qBool(q, false, "sac_preaviso"),
		Integracion:     qBool(q, false, "integracion"),
		SACIntegracion:  qBool(q, false, "sac_integracion"),
		AusenciasEgreso: qInt(q, "ausencias_egreso", "aus_mes"),

		Jubilado:      qBool(q, false, "jubilado"),
		Afiliado:      qBool(q, false, "afiliado"),
		SindicatoPct:  qFloat(q, "sindicato_pct", "sind_pct"),
		SindicatoFijo: Amount{qAmount(q, "sindicato_fijo", "sind_fijo")},
		Viaticos:      Amount{qAmount(q, "viaticos", "viaticosNR")},
	}
	osecac := qBool(q, true, "osecac")
	req.Osecac = &osecac
	return req.toInput()
}

func qStr(q url.Values, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(q.Get(n)); v != "" {
			return v
		}
	}
	return ""
}

func qFloat(q url.Values, names ...string) float64 {
	v, _ := strconv.ParseFloat(strings.Replace(qStr(q, names...), ",", ".", 1), 64)
	return v
}

func qInt(q url.Values, names ...string) int {
	return int(qFloat(q, names...))
}

func qAmount(q url.Values, names ...string) decimal.Decimal {
	return money.Parse(qStr(q, names...))
}

// qBool parses the checkbox spellings the form sends. An absent or
// empty parameter yields def, so flags that default to on (presentismo,
// osecac) stay on unless explicitly cleared.
func qBool(q url.Values, def bool, names ...string) bool {
	switch strings.ToLower(qStr(q, names...)) {
	case "":
		return def
	case "1", "true", "t", "on", "yes", "y", "si", "sí", "s", "x":
		return true
	default:
		return false
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses: schedule
// misses are 404, validation failures 400, anything else 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, liquidation.ErrNotFound):
		writeError(w, http.StatusNotFound, "Schedule row not found", err)
	case errors.Is(err, liquidation.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		writeError(w, http.StatusInternalServerError, "Liquidation failed", err)
	}
}
