/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal liquidation model from the external API contract:
  - Spanish field names matching the receipt vocabulary clients use
  - Tolerant amount parsing (JSON numbers or "$ 1.234,56" strings)
  - Defaults applied where the liquidation form leaves a field blank

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response wrappers returned to clients
  - *DTO: Nested response pieces

VALIDATION:
  Validation is done in handlers and in the liquidation engine, not in
  DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types (plus the query-string aliases)
  - liquidation/types.go: The domain input types these map onto
*/
package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercantil/wage-engine/liquidation"
	"github.com/mercantil/wage-engine/money"
	"github.com/mercantil/wage-engine/schedule"
)

// =============================================================================
// AMOUNT - tolerant decimal
// =============================================================================

// Amount is a decimal that unmarshals from a JSON number or from an
// Argentine-formatted string ("1.234,56", "$ 3.208.680"). Null and the
// empty string parse as zero.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		a.Decimal = money.Parse(raw)
		return nil
	}
	return a.Decimal.UnmarshalJSON(b)
}

// =============================================================================
// MONTHLY LIQUIDATION
// =============================================================================

// MonthlyRequest is the JSON body for POST /api/liquidacion/mensual.
// Optional fields default to the blank-form values: full-time jornada,
// presenteeism eligible, OSECAC enrolled.
type MonthlyRequest struct {
	Rama         string `json:"rama"`
	Agrupamiento string `json:"agrupamiento"`
	Categoria    string `json:"categoria"`
	Mes          string `json:"mes"`

	Jornada    float64 `json:"jornada"`
	Antiguedad int     `json:"antiguedad"`
	ZonaPct    float64 `json:"zona_pct"`

	Presentismo *bool   `json:"presentismo"`
	Ausencias   float64 `json:"ausencias"`
	Suspension  float64 `json:"suspension"`

	Hex50     float64 `json:"hex50"`
	Hex100    float64 `json:"hex100"`
	Nocturnas float64 `json:"nocturnas"`

	FeriadosTrabajados   int     `json:"feriados_trabajados"`
	FeriadosNoTrabajados int     `json:"feriados_no_trabajados"`
	Vacaciones           float64 `json:"vacaciones"`

	ACuenta  Amount `json:"a_cuenta"`
	Viaticos Amount `json:"viaticos"`

	ArmadoVidriera bool   `json:"armado_vidriera"`
	ManejoCaja     bool   `json:"manejo_caja"`
	CajeroTipo     string `json:"cajero_tipo"`

	KmVehiculo string `json:"km_vehiculo"`
	KmMenos100 int    `json:"km_menos_100"`
	KmMas100   int    `json:"km_mas_100"`

	ConexionesTier string   `json:"conexiones_tier"`
	Conexiones     int      `json:"conexiones"`
	TituloNivel    string   `json:"titulo_nivel"`
	TituloPct      float64  `json:"titulo_pct"`
	AdicFunebres   []string `json:"adicionales_funebres"`

	SACProporcional bool `json:"sac_proporcional"`

	Jubilado      bool    `json:"jubilado"`
	Osecac        *bool   `json:"osecac"`
	Afiliado      bool    `json:"afiliado"`
	SindicatoPct  float64 `json:"sindicato_pct"`
	SindicatoFijo Amount  `json:"sindicato_fijo"`
	FaltanteCaja  Amount  `json:"faltante_caja"`
	Adelanto      Amount  `json:"adelanto"`
	Embargo       Amount  `json:"embargo"`
}

func (req *MonthlyRequest) toInput() liquidation.MonthlyInput {
	in := liquidation.NewMonthlyInput(req.Rama, req.Agrupamiento, req.Categoria, req.Mes)

	if req.Jornada > 0 {
		in.HoursPerWeek = req.Jornada
	}
	in.SeniorityYears = req.Antiguedad
	in.ZonePercent = req.ZonaPct

	if req.Presentismo != nil {
		in.Presenteeism = *req.Presentismo
	}
	in.AbsenceDays = req.Ausencias
	in.SuspensionDays = req.Suspension

	in.Overtime50 = req.Hex50
	in.Overtime100 = req.Hex100
	in.NightHours = req.Nocturnas

	in.HolidaysWorked = req.FeriadosTrabajados
	in.HolidaysNotWorked = req.FeriadosNoTrabajados
	in.VacationDays = req.Vacaciones

	in.CashOnAccount = req.ACuenta.Decimal
	in.TravelAllowance = req.Viaticos.Decimal

	in.DisplayWindow = req.ArmadoVidriera
	in.CashHandling = req.ManejoCaja
	in.CashierGrade = req.CajeroTipo

	in.KmVehicle = req.KmVehiculo
	in.KmUnder100 = req.KmMenos100
	in.KmOver100 = req.KmMas100

	in.ConnectionTier = req.ConexionesTier
	in.ConnectionCount = req.Conexiones
	in.TitleLevel = req.TituloNivel
	in.TitlePercent = req.TituloPct
	in.FuneralAddOns = req.AdicFunebres

	in.ProportionalSAC = req.SACProporcional

	in.PensionRetiree = req.Jubilado
	if req.Osecac != nil {
		in.HealthEnrolled = *req.Osecac
	}
	in.UnionAffiliated = req.Afiliado
	in.UnionPercent = req.SindicatoPct
	in.UnionFixed = req.SindicatoFijo.Decimal
	in.CashShortage = req.FaltanteCaja.Decimal
	in.SalaryAdvance = req.Adelanto.Decimal
	in.Garnishment = req.Embargo.Decimal

	return in
}

// =============================================================================
// FINAL SETTLEMENT
// =============================================================================

// FinalRequest is the JSON body for POST /api/liquidacion/final.
// Dates are YYYY-MM-DD. When mejor_salario is zero the engine
// approximates it from the identity fields.
type FinalRequest struct {
	Tipo    string `json:"tipo"`
	Ingreso string `json:"ingreso"`
	Egreso  string `json:"egreso"`

	MejorSalario Amount `json:"mejor_salario"`

	Rama         string  `json:"rama"`
	Agrupamiento string  `json:"agrupamiento"`
	Categoria    string  `json:"categoria"`
	Jornada      float64 `json:"jornada"`
	Antiguedad   int     `json:"antiguedad"`

	PreavisoDias    int  `json:"preaviso_dias"`
	SACPreaviso     bool `json:"sac_preaviso"`
	Integracion     bool `json:"integracion"`
	SACIntegracion  bool `json:"sac_integracion"`
	AusenciasEgreso int  `json:"ausencias_egreso"`

	Jubilado      bool    `json:"jubilado"`
	Osecac        *bool   `json:"osecac"`
	Afiliado      bool    `json:"afiliado"`
	SindicatoPct  float64 `json:"sindicato_pct"`
	SindicatoFijo Amount  `json:"sindicato_fijo"`
	Viaticos      Amount  `json:"viaticos"`
}

func (req *FinalRequest) toInput() (liquidation.FinalInput, error) {
	in := liquidation.FinalInput{
		Type:         parseSettlementType(req.Tipo),
		BestSalary:   req.MejorSalario.Decimal,
		Branch:       req.Rama,
		Grouping:     req.Agrupamiento,
		Category:     req.Categoria,
		HoursPerWeek: req.Jornada,

		SeniorityYears: req.Antiguedad,

		NoticeDays:            req.PreavisoDias,
		IncludeNoticeSAC:      req.SACPreaviso,
		Integration:           req.Integracion,
		IncludeIntegrationSAC: req.SACIntegracion,
		ExitMonthAbsences:     req.AusenciasEgreso,

		PensionRetiree:  req.Jubilado,
		HealthEnrolled:  true,
		UnionAffiliated: req.Afiliado,
		UnionPercent:    req.SindicatoPct,
		UnionFixed:      req.SindicatoFijo.Decimal,
		TravelAllowance: req.Viaticos.Decimal,
	}
	if req.Osecac != nil {
		in.HealthEnrolled = *req.Osecac
	}

	var err error
	if in.EntryDate, err = time.Parse("2006-01-02", req.Ingreso); err != nil {
		return in, &liquidation.ValidationError{Field: "ingreso", Message: "fecha inválida, usar YYYY-MM-DD"}
	}
	if in.ExitDate, err = time.Parse("2006-01-02", req.Egreso); err != nil {
		return in, &liquidation.ValidationError{Field: "egreso", Message: "fecha inválida, usar YYYY-MM-DD"}
	}
	return in, nil
}

// parseSettlementType folds the spellings clients send ("despido",
// "Despido sin causa") onto the settlement constants. Empty input
// defaults to a resignation, the concept-poorest settlement.
func parseSettlementType(s string) liquidation.SettlementType {
	s = strings.ReplaceAll(schedule.NormName(s), " ", "_")
	switch s {
	case "", "RENUNCIA":
		return liquidation.Resignation
	case "DESPIDO", "DESPIDO_SIN_CAUSA":
		return liquidation.DismissalNoCause
	case "DESPIDO_CON_CAUSA":
		return liquidation.DismissalCause
	case "FALLECIMIENTO", "MUERTE":
		return liquidation.Death
	default:
		return liquidation.SettlementType(s)
	}
}

// =============================================================================
// RESPONSES
// =============================================================================

// LineItemDTO is one receipt row in API responses. The single-letter
// columns mirror the printed receipt: r(emunerativo), n(o remunerativo),
// i(ndemnizatorio), d(educción).
type LineItemDTO struct {
	Concepto string  `json:"concepto"`
	Rem      float64 `json:"r"`
	NoRem    float64 `json:"n"`
	Indem    float64 `json:"i"`
	Ded      float64 `json:"d"`
	Base     float64 `json:"base"`
}

// TotalsDTO aggregates a receipt. neto = rem + nr + ind - ded.
type TotalsDTO struct {
	Rem   float64 `json:"rem"`
	NoRem float64 `json:"nr"`
	Indem float64 `json:"ind"`
	Ded   float64 `json:"ded"`
	Neto  float64 `json:"neto"`
}

// ReceiptResponse is the envelope for a monthly liquidation.
type ReceiptResponse struct {
	OK      bool          `json:"ok"`
	Items   []LineItemDTO `json:"items"`
	Totales TotalsDTO     `json:"totales"`
}

// SettlementResponse adds the settlement derivations to the envelope.
type SettlementResponse struct {
	ReceiptResponse

	MejorSalario float64 `json:"mejor_salario"`
	AniosArt245  int     `json:"anios_art245"`
}

// ScaleResponse is the envelope for a single schedule row.
type ScaleResponse struct {
	OK           bool    `json:"ok"`
	Rama         string  `json:"rama"`
	Agrupamiento string  `json:"agrupamiento"`
	Categoria    string  `json:"categoria"`
	Mes          string  `json:"mes"`
	Basico       float64 `json:"basico"`
	NoRem        float64 `json:"no_remunerativo"`
	SumaFija     float64 `json:"suma_fija"`
}

// MetaResponse is the dropdown tree for the UI.
type MetaResponse struct {
	OK bool `json:"ok"`
	schedule.Meta
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toReceiptResponse(r *liquidation.Receipt) ReceiptResponse {
	items := make([]LineItemDTO, len(r.Items))
	for i, it := range r.Items {
		items[i] = LineItemDTO{
			Concepto: it.Concept,
			Rem:      it.Rem.InexactFloat64(),
			NoRem:    it.NonRem.InexactFloat64(),
			Indem:    it.Indemnity.InexactFloat64(),
			Ded:      it.Deduction.InexactFloat64(),
			Base:     it.Base.InexactFloat64(),
		}
	}
	return ReceiptResponse{
		OK:    true,
		Items: items,
		Totales: TotalsDTO{
			Rem:   r.Totals.Rem.InexactFloat64(),
			NoRem: r.Totals.NonRem.InexactFloat64(),
			Indem: r.Totals.Indemnity.InexactFloat64(),
			Ded:   r.Totals.Deduction.InexactFloat64(),
			Neto:  r.Totals.Net.InexactFloat64(),
		},
	}
}
