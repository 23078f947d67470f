package question

// DefaultSubtopics is the curated Haryana CET / HSSC / HPSC syllabus.
var DefaultSubtopics = []string{
	// General Awareness
	"Current Affairs", "Indian History", "Indian Polity & Constitution", "Indian Geography", "Indian Economy",
	"Sports & Games", "Important Days & Events", "Awards & Honors", "Science & Technology", "Books and Authors",
	"Government Schemes", "Budget & Five-Year Plans",
	// Reasoning
	"Analogies", "Number & Alphabet Series", "Coding-Decoding", "Blood Relations", "Direction Sense Test",
	"Ranking & Order", "Venn Diagrams", "Puzzles", "Syllogism", "Calendar & Clock", "Classification", "Non-Verbal Reasoning",
	// Maths
	"Number System", "Simplification", "HCF & LCM", "Ratio & Proportion", "Percentage", "Profit & Loss",
	"Simple & Compound Interest", "Time & Work", "Time, Speed & Distance", "Averages", "Mixture & Allegation", "Data Interpretation",
	// English
	"Grammar", "Reading Comprehension", "Fill in the Blanks", "Synonyms & Antonyms", "Idioms & Phrases",
	"One-word Substitution", "Error Detection", "Spelling Correction", "Sentence Rearrangement",
	// Hindi
	"व्याकरण", "मुहावरे और लोकोक्तियाँ", "पर्यायवाची और विलोम", "अपठित गद्यांश", "वाक्य सुधार",
	"शब्द शुद्धि", "वाक्य विन्यास",
	// Computer
	"Basics of Computers", "Input & Output Devices", "MS Word, Excel, PowerPoint", "Internet and Email",
	"Operating Systems", "Computer Abbreviations", "Shortcut Keys", "Basic Networking",
	// Science
	"Physics", "Chemistry", "Biology", "Environmental Science", "Scientific Inventions",
	// Haryana GK
	"History of Haryana", "Geography of Haryana", "Culture & Heritage", "Art & Literature", "Festivals & Fairs",
	"Important Rivers & Lakes", "Economy of Haryana", "Famous Personalities", "Sports in Haryana",
	"Haryana Current Affairs", "Recent Govt. Schemes", "Environment & Ecology of Haryana",
}
