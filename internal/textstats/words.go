package textstats

var abbreviations = map[string]struct{}{
	"e.g": {}, "i.e": {}, "etc": {}, "vs": {}, "cf": {}, "al": {}, "approx": {},
	"fig": {}, "figs": {}, "pat": {}, "ref": {}, "eq": {}, "sec": {},
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "st": {}, "jr": {}, "sr": {},
	"inc": {}, "ltd": {}, "co": {}, "corp": {}, "u.s": {}, "u.k": {},
}

var functionWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "the", "and", "or", "but", "nor", "so", "yet", "for",
		"of", "in", "on", "at", "to", "by", "with", "from", "into", "onto",
		"over", "under", "about", "above", "below", "between", "through", "during",
		"before", "after", "without", "within", "against", "among", "upon", "as",
		"i", "me", "my", "we", "us", "our", "you", "your", "he", "him", "his",
		"she", "her", "it", "its", "they", "them", "their", "this", "that",
		"these", "those", "who", "whom", "whose", "which", "what",
		"is", "am", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "will", "would", "shall",
		"should", "can", "could", "may", "might", "must",
		"not", "no", "if", "then", "than", "there", "here", "when", "where",
		"while", "because", "although", "though", "also", "very", "just",
		"all", "any", "each", "some", "such", "both", "either", "neither",
	} {
		functionWords[w] = struct{}{}
	}
}

// IsFunctionWord reports whether a lowercase token is a closed-class word.
func IsFunctionWord(tok string) bool {
	_, ok := functionWords[tok]
	return ok
}
