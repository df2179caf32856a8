// Package geo resolves stop names to map coordinates. It is pure
// static reference data for the presentation layer's map view: no
// booking invariant depends on it and it lives entirely outside the
// store's transactional boundary.
package geo

import "strings"

// Point is a (latitude, longitude) pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Index answers coordinate lookups over an injected dataset. Lookups
// try an exact normalized hit first, then aliases, then a best-effort
// substring match, because timetable stop names carry decorations
// ("Киров (автовокзал)") that the raw dataset keys do not.
type Index struct {
	points  map[string]Point
	aliases map[string]string
}

// NewIndex builds an Index from a name→point dataset and an optional
// alias→canonical-name table. Keys are normalized once here so every
// lookup is a plain map hit.
func NewIndex(points map[string]Point, aliases map[string]string) *Index {
	idx := &Index{
		points:  make(map[string]Point, len(points)),
		aliases: make(map[string]string, len(aliases)),
	}
	for name, p := range points {
		idx.points[normalize(name)] = p
	}
	for alias, canonical := range aliases {
		idx.aliases[normalize(alias)] = normalize(canonical)
	}
	return idx
}

// Lookup returns the coordinates for a stop name. The boolean is
// false when no rule produced a match.
func (i *Index) Lookup(name string) (Point, bool) {
	key := normalize(name)
	if key == "" {
		return Point{}, false
	}
	if p, ok := i.points[key]; ok {
		return p, true
	}
	if canonical, ok := i.aliases[key]; ok {
		if p, ok := i.points[canonical]; ok {
			return p, true
		}
	}
	// Substring fallback: either the query contains a known name
	// ("Киров (автовокзал)" → "Киров") or a known name contains the
	// query. Longest candidate wins so "Кирово-Чепецк" is not
	// swallowed by "Киров".
	best := ""
	for known := range i.points {
		if strings.Contains(key, known) || strings.Contains(known, key) {
			if len(known) > len(best) {
				best = known
			}
		}
	}
	if best != "" {
		return i.points[best], true
	}
	return Point{}, false
}

// normalize lowercases, trims, folds ё→е and strips settlement-type
// prefixes and parenthesized decorations, so "г. Киров (автовокзал)"
// and "киров" collide.
func normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "ё", "е")
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	for _, prefix := range []string{"г. ", "г.", "пгт ", "пгт. ", "п. ", "с. ", "д. ", "ст. "} {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	return strings.TrimSpace(s)
}

// Default returns the built-in Kirov-region dataset. Values are town
// centers, which is all the map view needs for marker placement.
func Default() *Index {
	return NewIndex(defaultPoints, defaultAliases)
}

var defaultPoints = map[string]Point{
	"Киров":          {58.6035, 49.6680},
	"Слободской":     {58.7310, 50.1672},
	"Вахруши":        {58.6869, 50.0339},
	"Кирово-Чепецк":  {58.5560, 50.0316},
	"Просница":       {58.5313, 49.9399},
	"Котельнич":      {58.3032, 48.3478},
	"Оричи":          {58.3592, 49.0636},
	"Стрижи":         {58.4582, 49.2994},
	"Яранск":         {57.3049, 47.8909},
	"Советск":        {57.5848, 48.9648},
	"Уржум":          {57.1103, 50.0057},
	"Нолинск":        {57.5584, 49.9351},
	"Омутнинск":      {58.6699, 52.1895},
	"Белая Холуница": {58.8411, 50.8461},
	"Зуевка":         {58.4028, 51.1281},
	"Вятские Поляны": {56.2286, 51.0624},
	"Малмыж":         {56.5244, 50.6781},
	"Кумены":         {58.1089, 49.9181},
	"Верхошижемье":   {57.9468, 49.1005},
	"Мурыгино":       {58.7406, 49.4909},
	"Юрья":           {59.0333, 49.3667},
	"Орлов":          {58.5389, 48.8925},
	"Луза":           {60.6297, 47.2540},
	"Подосиновец":    {60.2785, 47.0669},
	"Санчурск":       {56.9459, 47.2494},
	"Кикнур":         {57.3062, 47.2066},
	"Тужа":           {57.6122, 47.9312},
	"Арбаж":          {57.6802, 48.3153},
	"Даровской":      {58.7738, 47.9646},
	"Свеча":          {58.2808, 47.5201},
	"Ленинское":      {58.2352, 47.0543},
	"Пижанка":        {57.4579, 48.5426},
	"Лебяжье":        {57.3768, 49.5145},
	"Суна":           {57.8466, 50.0662},
	"Богородское":    {57.8286, 50.7101},
	"Фаленки":        {58.3723, 51.6364},
	"Уни":            {57.7497, 51.4883},
	"Кильмезь":       {56.9443, 51.0628},
	"Нема":           {57.5067, 50.4976},
	"Сосновка":       {56.2534, 51.2838},
	"Афанасьево":     {58.8559, 53.0145},
	"Нагорск":        {59.3183, 50.8092},
	"Опарино":        {59.8524, 48.2789},
	"Мураши":         {59.3954, 48.9633},
}

var defaultAliases = map[string]string{
	"Вятка":        "Киров",
	"Чепецк":       "Кирово-Чепецк",
	"Халтурин":     "Орлов",
	"Лальск":       "Луза",
	"Поляны":       "Вятские Поляны",
	"Белохолуницк": "Белая Холуница",
}
