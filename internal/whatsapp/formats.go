package whatsapp

// Format documents one accepted message shape.
type Format struct {
	Kind        string   `json:"tipo"`
	Template    string   `json:"formato"`
	Description string   `json:"descripcion"`
	Examples    []string `json:"ejemplos"`
}

var formats = []Format{
	{
		Kind:        "GASTO",
		Template:    "GASTO <monto> <categoria> [cuenta] [descripcion]",
		Description: "Registra un gasto. Las cuentas con espacios van entre comillas.",
		Examples: []string{
			`GASTO 25.50 Alimentación "Cuenta Principal"`,
			"GASTO 15 Transporte",
			"GASTO 9.99 Entretenimiento Netflix",
		},
	},
	{
		Kind:        "INGRESO",
		Template:    "INGRESO <monto> <categoria> [cuenta] [descripcion]",
		Description: "Registra un ingreso.",
		Examples: []string{
			`INGRESO 500 Freelance "Cuenta Ahorros"`,
			`INGRESO 3000 Salario "Cuenta Principal" Pago mensual`,
		},
	},
	{
		Kind:        "TRANSFERENCIA",
		Template:    "TRANSFERENCIA <monto> <origen> <destino>",
		Description: "Mueve dinero entre dos cuentas.",
		Examples: []string{
			`TRANSFERENCIA 200 "Cuenta Principal" "Cuenta Ahorros"`,
		},
	},
}

// Formats returns the documented message grammar.
func Formats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}
