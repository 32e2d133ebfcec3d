package knowledge

// Curated domain facts shared by all shops. The alias tables are the
// matching surface: a message containing any alias (accented or not)
// resolves to the entry. Keep aliases lowercase.

// DefaultEntries returns the built-in fact set.
// The returned slice is freshly allocated; callers may not mutate the
// shared entry contents.
func DefaultEntries() []Entry {
	entries := make([]Entry, len(defaultEntries))
	copy(entries, defaultEntries)
	return entries
}

var defaultEntries = []Entry{
	{
		Key:      "retinol",
		Aliases:  []string{"rétinol", "retinol", "vitamine a"},
		Category: CategoryIngredient,
		Properties: []string{
			"actif anti-âge de référence, stimule le renouvellement cellulaire",
			"atténue rides, taches pigmentaires et irrégularités de texture",
		},
		Contraindications: []string{
			"déconseillé pendant la grossesse et l'allaitement",
			"actif puissant: introduire progressivement et faire un test de patch",
			"photosensibilisant, protection solaire obligatoire le matin",
		},
		RecommendedFor: []string{"peaux matures", "taches pigmentaires", "texture irrégulière"},
	},
	{
		Key:      "acide-hyaluronique",
		Aliases:  []string{"acide hyaluronique", "hyaluronique", "hyaluronate"},
		Category: CategoryIngredient,
		Properties: []string{
			"humectant capable de retenir jusqu'à 1000 fois son poids en eau",
			"repulpe et hydrate sans alourdir, convient à tous les types de peau",
		},
		RecommendedFor: []string{"déshydratation", "ridules de déshydratation", "tous types de peau"},
	},
	{
		Key:      "niacinamide",
		Aliases:  []string{"niacinamide", "vitamine b3"},
		Category: CategoryIngredient,
		Properties: []string{
			"régule la production de sébum et resserre les pores",
			"renforce la barrière cutanée, apaise les rougeurs",
		},
		RecommendedFor: []string{"peaux mixtes à grasses", "pores dilatés", "teint irrégulier"},
	},
	{
		Key:      "beurre-karite",
		Aliases:  []string{"karité", "karite", "beurre de karité"},
		Category: CategoryIngredient,
		Properties: []string{
			"émollient riche en acides gras et vitamines A et E",
			"nourrit en profondeur, scelle l'hydratation des cheveux et de la peau",
		},
		RecommendedFor: []string{"cheveux secs et crépus", "peaux très sèches", "pointes fourchues"},
	},
	{
		Key:      "huile-ricin",
		Aliases:  []string{"ricin", "huile de ricin"},
		Category: CategoryIngredient,
		Properties: []string{
			"traditionnellement utilisée pour fortifier cheveux, cils et sourcils",
			"texture épaisse, s'applique en bain d'huile ou mélangée à une huile légère",
		},
		RecommendedFor: []string{"croissance des cheveux", "tempes dégarnies", "cheveux cassants"},
	},
	{
		Key:      "alopecie-traction",
		Aliases:  []string{"alopécie", "alopecie", "traction", "tresses", "tissages", "tissage"},
		Category: CategoryProblem,
		Properties: []string{
			"l'alopécie de traction est une perte de cheveux causée par des coiffures trop serrées (tresses, tissages, chignons)",
			"touche d'abord les tempes et la ligne frontale",
		},
		Contraindications: []string{
			"stade avancé (zones lisses et brillantes): consulter un dermatologue, la repousse n'est plus garantie",
		},
		RecommendedFor: []string{
			"espacer les coiffures protectrices et relâcher la tension sur les bords",
			"hydratation régulière du cuir chevelu et des bordures",
			"massages aux huiles fortifiantes (ricin, romarin)",
		},
	},
	{
		Key:      "cheveux-cassants",
		Aliases:  []string{"cassants", "casse", "fragiles", "fourches"},
		Category: CategoryProblem,
		Properties: []string{
			"la casse vient d'un déficit d'hydratation ou d'un excès de manipulation",
			"à distinguer de la chute: les cheveux cassés sont courts, sans bulbe",
		},
		RecommendedFor: []string{
			"hydratation profonde hebdomadaire (masques, bains d'huile)",
			"alterner soins hydratants et protéinés",
			"manipuler les cheveux humides avec un peigne à dents larges",
		},
	},
	{
		Key:      "chute-cheveux",
		Aliases:  []string{"chute", "perte de cheveux", "tombent"},
		Category: CategoryProblem,
		Properties: []string{
			"une chute de 50 à 100 cheveux par jour est normale",
			"chute diffuse persistante: causes fréquentes stress, carences, post-partum",
		},
		Contraindications: []string{
			"chute brutale ou par plaques: consultation médicale recommandée",
		},
		RecommendedFor: []string{"cures fortifiantes", "massages du cuir chevelu", "bilan si la chute persiste au-delà de 3 mois"},
	},
	{
		Key:      "acne",
		Aliases:  []string{"acné", "acne", "boutons", "imperfections"},
		Category: CategoryProblem,
		Properties: []string{
			"inflammation du follicule pilo-sébacé, aggravée par les corps gras comédogènes",
			"ne pas percer les boutons, risque de cicatrices et taches",
		},
		Contraindications: []string{
			"acné sévère ou kystique: relève d'un traitement dermatologique, pas de la cosmétique",
		},
		RecommendedFor: []string{"nettoyage doux biquotidien", "niacinamide ou acide salicylique", "textures non comédogènes"},
	},
	{
		Key:      "cheveux-crepus",
		Aliases:  []string{"crépus", "crepus", "4c", "afro"},
		Category: CategoryHairType,
		Properties: []string{
			"boucle très serrée, le sébum circule mal le long de la fibre",
			"naturellement secs et fragiles aux points de courbure",
		},
		RecommendedFor: []string{"méthode LOC (liquide, huile, crème)", "co-wash entre les shampoings", "coiffures protectrices sans tension"},
	},
	{
		Key:      "cheveux-secs",
		Aliases:  []string{"secs", "sécheresse", "secheresse", "ternes"},
		Category: CategoryHairType,
		Properties: []string{
			"fibre qui manque d'eau et de lipides, toucher rêche et manque de brillance",
		},
		RecommendedFor: []string{"espacer les shampoings", "masques hydratants", "sceller avec un beurre ou une huile"},
	},
}
