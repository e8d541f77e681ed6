package data

// SeedEmployees returns the employees preloaded into an empty store
func SeedEmployees() []Employee {
	return []Employee{
		{Name: "Bilbo", Surname: "Baggins", Role: "burglar", PhoneCode: "93", PhoneNumber: "848595895"},
		{Name: "Frodo", Surname: "Baggins", Role: "thief", PhoneCode: "998", PhoneNumber: "72827282"},
		{Name: "Samwise", Surname: "Gamgee", Role: "gardener", PhoneCode: "94", PhoneNumber: "123456789"},
		{Name: "Gandalf", Surname: "the Grey", Role: "wizard", PhoneCode: "61", PhoneNumber: "987654321"},
		{Name: "Legolas", Surname: "Greenleaf", Role: "archer", PhoneCode: "673", PhoneNumber: "456789123"},
		{Name: "Aragorn", Role: "ranger", PhoneCode: "1", PhoneNumber: "555555555"},
		{Name: "Gimli", Role: "warrior", PhoneCode: "673", PhoneNumber: "111111111"},
		{Name: "Boromir", Role: "captain", PhoneCode: "51", PhoneNumber: "777777777"},
		{Name: "Meriadoc", Surname: "Brandybuck", Role: "squire", PhoneCode: "51", PhoneNumber: "888888888"},
		{Name: "Peregrin", Surname: "Took", Role: "squire", PhoneCode: "52", PhoneNumber: "666666666"},
		{Name: "Faramir", Role: "captain", PhoneCode: "53", PhoneNumber: "333333333"},
		{Name: "Éomer", Role: "marshal", PhoneCode: "55", PhoneNumber: "222222222"},
		{Name: "Éowyn", Role: "shieldmaiden", PhoneCode: "54", PhoneNumber: "999999999"},
		{Name: "Arwen", Surname: "Evenstar", Role: "elf", PhoneCode: "86", PhoneNumber: "444444444"},
		{Name: "Théoden", Role: "king", PhoneCode: "86", PhoneNumber: "555555555"},
		{Name: "Saruman", Surname: "the White", Role: "wizard", PhoneCode: "56", PhoneNumber: "123123123"},
		{Name: "Sauron", Role: "dark lord", PhoneCode: "55", PhoneNumber: "666666666"},
		{Name: "Galadriel", Role: "elf", PhoneCode: "54", PhoneNumber: "777777777"},
		{Name: "Gollum", Role: "creature", PhoneCode: "1", PhoneNumber: "888888888"},
		{Name: "Tom", Surname: "Bombadil", Role: "mysterious", PhoneCode: "255", PhoneNumber: "555555555"},
	}
}
