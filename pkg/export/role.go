package export

// Positions assigned to players.
const (
	RoleTop     = "TOP"
	RoleJungle  = "JNG"
	RoleMid     = "MID"
	RoleADC     = "ADC"
	RoleSupport = "SUP"
	RoleUnknown = "UNKNOWN"
)

func championSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// roleSets is checked in order; the first set holding the champion wins.
var roleSets = []struct {
	role      string
	champions map[string]struct{}
}{
	{RoleTop, championSet(
		"Aatrox", "Ambessa", "Aurora", "Camille", "Cho'Gath", "Darius", "Dr. Mundo", "Fiora",
		"Gangplank", "Garen", "Gnar", "Gragas", "Gwen", "Illaoi", "Irelia", "Jax", "Jayce",
		"K'Sante", "Kayle", "Kennen", "Kled", "Malphite", "Mordekaiser", "Nasus", "Olaf",
		"Ornn", "Quinn", "Renekton", "Riven", "Rumble", "Sett", "Shen", "Singed", "Sion",
		"Tahm Kench", "Teemo", "Trundle", "Tryndamere", "Urgot", "Volibear", "Warwick",
		"Wukong", "Yasuo", "Yone", "Yorick",
	)},
	{RoleJungle, championSet(
		"Amumu", "Bel'Veth", "Brand", "Briar", "Diana", "Ekko", "Elise", "Evelynn",
		"Fiddlesticks", "Graves", "Hecarim", "Ivern", "Jarvan IV", "Karthus", "Kayn",
		"Kha'Zix", "Kindred", "Lee Sin", "Lillia", "Maokai", "Master Yi", "Nidalee",
		"Nocturne", "Nunu & Willump", "Poppy", "Rek'Sai", "Rengar", "Sejuani", "Shaco",
		"Shyvana", "Skarner", "Talon", "Udyr", "Vi", "Viego", "Xin Zhao", "Zac",
	)},
	{RoleMid, championSet(
		"Ahri", "Akali", "Akshan", "Anivia", "Annie", "Aurelion Sol", "Azir", "Cassiopeia",
		"Corki", "Fizz", "Galio", "Hwei", "Kassadin", "Katarina", "LeBlanc", "Lissandra",
		"Lux", "Malzahar", "Naafiri", "Neeko", "Orianna", "Qiyana", "Ryze", "Syndra",
		"Sylas", "Taliyah", "Twisted Fate", "Veigar", "Vex", "Viktor", "Vladimir",
		"Xerath", "Zed", "Ziggs", "Zoe",
	)},
	{RoleADC, championSet(
		"Aphelios", "Ashe", "Caitlyn", "Draven", "Ezreal", "Jhin", "Jinx", "Kai'Sa",
		"Kalista", "Kog'Maw", "Lucian", "Miss Fortune", "Nilah", "Samira", "Senna",
		"Sivir", "Smolder", "Tristana", "Twitch", "Varus", "Vayne", "Xayah", "Zeri",
	)},
	{RoleSupport, championSet(
		"Alistar", "Bard", "Blitzcrank", "Braum", "Janna", "Karma", "Leona", "Lulu",
		"Milio", "Morgana", "Nami", "Nautilus", "Pyke", "Rakan", "Rell", "Renata Glasc",
		"Seraphine", "Sona", "Soraka", "Taric", "Thresh", "Yuumi", "Zilean", "Zyra",
	)},
}

// InferRole guesses a player's position from the champion they picked.
// Names are matched exactly as GRID spells them; unmatched names yield
// RoleUnknown.
func InferRole(champion string) string {
	for _, s := range roleSets {
		if _, ok := s.champions[champion]; ok {
			return s.role
		}
	}
	return RoleUnknown
}
