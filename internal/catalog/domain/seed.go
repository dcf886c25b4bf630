package domain

// DefaultProducts is the launch catalog written by an explicit seed.
func DefaultProducts() []Product {
	return []Product{
		{
			ID:               "formacion-inicial-tsf",
			Name:             "Formación Inicial TSF",
			Type:             ProductTypeCourse,
			ShortDescription: "Curso base de trading para dar tus primeros pasos con el sistema TSF.",
			PriceCents:       4900,
			Currency:         DefaultCurrency,
			ImageURL:         "https://rodripereztsf.github.io/IMG/formacion-inicial.jpg",
			IsActive:         BoolPtr(true),
			DeliveryType:     DeliveryDriveLink,
			DeliveryValue:    "https://drive.google.com/XXXXX",
		},
		{
			ID:               "formacion-avanzada-liquidez",
			Name:             "Formación Avanzada - Liquidez y Scalping",
			Type:             ProductTypeCourse,
			ShortDescription: "Entrenamiento intensivo en liquidez institucional y scalping en XAUUSD.",
			PriceCents:       19900,
			Currency:         DefaultCurrency,
			ImageURL:         "https://rodripereztsf.github.io/IMG/formacion-avanzada.jpg",
			IsActive:         BoolPtr(true),
			DeliveryType:     DeliveryDriveLink,
			DeliveryValue:    "https://drive.google.com/YYYYY",
		},
		{
			ID:               "indicador-liquidez-tsf",
			Name:             "Indicador TSF Liquidez MTF",
			Type:             ProductTypeIndicator,
			ShortDescription: "Indicador avanzado de liquidez multi-timeframe para TradingView.",
			PriceCents:       9900,
			Currency:         DefaultCurrency,
			ImageURL:         "https://rodripereztsf.github.io/IMG/indicador-liquidez.jpg",
			IsActive:         BoolPtr(true),
			DeliveryType:     DeliveryInstructionPage,
			DeliveryValue:    "/acceso/indicador-liquidez-tsf",
		},
		{
			ID:               "bot-scalping-xauusd",
			Name:             "Bot de Scalping XAUUSD",
			Type:             ProductTypeBot,
			ShortDescription: "Robot de trading optimizado para XAUUSD en sesiones de Londres y NY.",
			PriceCents:       24900,
			Currency:         DefaultCurrency,
			ImageURL:         "https://rodripereztsf.github.io/IMG/bot-scalping.jpg",
			IsActive:         BoolPtr(true),
			DeliveryType:     DeliveryInstructionPage,
			DeliveryValue:    "/acceso/bot-scalping-xauusd",
		},
		{
			ID:               "remera-oficial-tsf",
			Name:             "Remera Oficial TRADING SIN FRONTERAS",
			Type:             ProductTypePhysical,
			ShortDescription: "Remera negra edición limitada TSF para traders sin fronteras.",
			PriceCents:       6900,
			Currency:         DefaultCurrency,
			ImageURL:         "https://rodripereztsf.github.io/IMG/remera-oficial.jpg",
			IsActive:         BoolPtr(true),
			DeliveryType:     DeliveryNone,
		},
	}
}
