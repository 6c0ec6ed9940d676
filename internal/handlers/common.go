package handlers

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
