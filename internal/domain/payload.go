package domain

// CardPayload — входная форма создания/обновления визитки.
// Приходит либо JSON-телом, либо multipart-формой с файлом аватарки;
// транспортный слой нормализует оба варианта в эту структуру.
type CardPayload struct {
	FullName    string      `json:"fullName"`
	Title       string      `json:"title"`
	Location    string      `json:"location"`
	CompanyName string      `json:"companyName"`
	Description string      `json:"description"`
	Contact     Contact     `json:"contact"`
	SocialLinks SocialLinks `json:"socialLinks"`
	Services    []string    `json:"services"`
	Products    []string    `json:"products"`
	Gallery     []string    `json:"gallery"`
	AssignedTo  string      `json:"assignedTo"` // uuid назначенного пользователя

	// Файл аватарки, только из multipart-части
	Picture     []byte `json:"-"`
	PictureMime string `json:"-"`
	HasPicture  bool   `json:"-"`
}
